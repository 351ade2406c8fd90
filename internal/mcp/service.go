package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/catalog"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/workouts"
)

type schemaRepo interface {
	Columns(ctx context.Context) ([]SchemaColumn, error)
}

type exercisesLister interface {
	ListExercises(ctx context.Context) ([]catalog.Exercise, error)
}

type workoutsLister interface {
	ListForUser(ctx context.Context, owner int) ([]workouts.Workout, error)
}

type setsReader interface {
	Get(ctx context.Context, key performance.Key) ([]performance.Set, error)
}

// contextService is what the tool handlers need, kept small for tests.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	ListExercises(ctx context.Context) ([]catalog.Exercise, error)
	ListUserWorkouts(ctx context.Context, userID int) ([]workouts.Workout, error)
	GetPerformance(ctx context.Context, key performance.Key) ([]performance.Set, error)
}

// ContextService exposes read-only workout data to MCP clients.
type ContextService struct {
	schema    schemaRepo
	exercises exercisesLister
	workouts  workoutsLister
	sets      setsReader
}

func NewContextService(
	schema schemaRepo,
	exercises exercisesLister,
	workouts workoutsLister,
	sets setsReader,
) *ContextService {
	return &ContextService{
		schema:    schema,
		exercises: exercises,
		workouts:  workouts,
		sets:      sets,
	}
}

// GetSchema renders the service tables as markdown.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.Columns(ctx)
	if err != nil {
		return "", err
	}
	return formatSchema(cols), nil
}

func formatSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Workouts DB Schema\n\nNo service tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}
	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var b strings.Builder
	b.WriteString("# Workouts DB Schema\n\n")
	b.WriteString("Tables: " + strings.Join(tables, ", ") + " (schema: public).\n")
	b.WriteString("userworkoutperformance.performance_data holds {\"sets\":[{\"set\",\"reps\",\"weight\"}]}.\n")
	for _, table := range tables {
		b.WriteString("\n## " + table + "\n\n")
		b.WriteString("| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range byTable[table] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
	}
	return b.String()
}

func (s *ContextService) ListExercises(ctx context.Context) ([]catalog.Exercise, error) {
	return s.exercises.ListExercises(ctx)
}

func (s *ContextService) ListUserWorkouts(ctx context.Context, userID int) ([]workouts.Workout, error) {
	return s.workouts.ListForUser(ctx, userID)
}

func (s *ContextService) GetPerformance(ctx context.Context, key performance.Key) ([]performance.Set, error) {
	return s.sets.Get(ctx, key)
}
