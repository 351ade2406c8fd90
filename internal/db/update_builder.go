package db

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoAssignments = errors.New("no columns to update")

// UpdateBuilder builds a parameterized UPDATE statement over a fixed set of columns.
// Column names come only from the allow list given at construction; values are always
// passed as positional parameters.
type UpdateBuilder struct {
	table   string
	allowed map[string]struct{}

	sets  []string
	where []string
	args  []any
}

func NewUpdateBuilder(table string, columns ...string) *UpdateBuilder {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return &UpdateBuilder{
		table:   table,
		allowed: allowed,
	}
}

// Set assigns value to column. Unknown columns are a programming error and panic.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	if _, ok := b.allowed[column]; !ok {
		panic(fmt.Sprintf("update %s: column %q is not updatable", b.table, column))
	}
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
	return b
}

// SetIf assigns the pointed value when ptr is not nil.
func SetIf[T any](b *UpdateBuilder, column string, ptr *T) *UpdateBuilder {
	if ptr == nil {
		return b
	}
	return b.Set(column, *ptr)
}

// Where adds an equality condition. Conditions are ANDed.
func (b *UpdateBuilder) Where(column string, value any) *UpdateBuilder {
	b.args = append(b.args, value)
	b.where = append(b.where, fmt.Sprintf("%s = $%d", column, len(b.args)))
	return b
}

func (b *UpdateBuilder) HasAssignments() bool {
	return len(b.sets) > 0
}

// Build returns the statement and its arguments. returning is appended verbatim
// as a RETURNING clause when not empty.
func (b *UpdateBuilder) Build(returning ...string) (string, []any, error) {
	if len(b.sets) == 0 {
		return "", nil, ErrNoAssignments
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(b.sets, ", "))
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(returning) > 0 {
		sb.WriteString(" RETURNING ")
		sb.WriteString(strings.Join(returning, ", "))
	}

	return sb.String(), b.args, nil
}
