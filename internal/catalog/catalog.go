// Package catalog serves the read-only exercise catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MuscleGroup string `json:"muscle_group"`
}

// WorkoutExercise is a catalog exercise as linked into a workout.
type WorkoutExercise struct {
	Exercise
	LinkID    int `json:"workout_exercise_id"`
	WorkoutID int `json:"workout_id"`
}

type Repo struct {
	gw *db.Gateway
}

func NewRepo(gw *db.Gateway) *Repo {
	return &Repo{
		gw: gw,
	}
}

func (r *Repo) ListExercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.listexercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.gw.Querier().Query(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(muscle_group, '')
		FROM exercise
		ORDER BY id
	`)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("list exercises: %w", err))
	}

	exercises, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Exercise, error) {
		var e Exercise
		err := row.Scan(&e.ID, &e.Name, &e.Description, &e.MuscleGroup)
		return e, err
	})
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("scan exercises: %w", err))
	}

	span.SetAttributes(attribute.Int("exercises", len(exercises)))
	return exercises, nil
}

// ExercisesInWorkout lists the exercises linked into a workout the viewer may see:
// its own workouts and public ones. Anything else reads as an empty list.
func (r *Repo) ExercisesInWorkout(ctx context.Context, viewer, workoutID int) (_ []WorkoutExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.exercisesinworkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_id", workoutID))

	rows, err := r.gw.Querier().Query(ctx, `
		SELECT e.id, e.name, COALESCE(e.description, ''), COALESCE(e.muscle_group, ''), we.id, we.workout_id
		FROM workoutexercises we
		JOIN exercise e ON we.exercise_id = e.id
		WHERE we.workout_id = $1
		  AND EXISTS (SELECT 1 FROM workout w WHERE w.id = $1 AND (w.is_public OR w.user_id = $2))
		ORDER BY we.id
	`, workoutID, viewer)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("list workout %d exercises: %w", workoutID, err))
	}

	exercises, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (WorkoutExercise, error) {
		var we WorkoutExercise
		err := row.Scan(&we.ID, &we.Name, &we.Description, &we.MuscleGroup, &we.LinkID, &we.WorkoutID)
		return we, err
	})
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("scan workout %d exercises: %w", workoutID, err))
	}
	return exercises, nil
}
