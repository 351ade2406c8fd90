package mcp

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
)

// SchemaColumn is one row of information_schema.columns.
type SchemaColumn struct {
	TableName  string
	ColumnName string
	DataType   string
	IsNullable string
	ColumnDef  *string
}

var serviceTables = []string{"users", "exercise", "workout", "workoutexercises", "userworkoutperformance"}

type SchemaRepo struct {
	gw *db.Gateway
}

func NewSchemaRepo(gw *db.Gateway) *SchemaRepo {
	return &SchemaRepo{gw: gw}
}

// Columns returns column metadata of the service tables.
func (r *SchemaRepo) Columns(ctx context.Context) ([]SchemaColumn, error) {
	rows, err := r.gw.Querier().Query(ctx, `
		SELECT table_name, column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = ANY($1)
		ORDER BY table_name, ordinal_position`,
		serviceTables,
	)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}

	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SchemaColumn, error) {
		var c SchemaColumn
		err := row.Scan(&c.TableName, &c.ColumnName, &c.DataType, &c.IsNullable, &c.ColumnDef)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect columns: %w", err)
	}
	return cols, nil
}
