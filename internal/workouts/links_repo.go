package workouts

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

// AddExercise links exerciseID to the owner's workout and seeds its performance record.
// Both rows are written or neither is.
func (r *Repo) AddExercise(ctx context.Context, owner, workoutID, exerciseID int, sets []performance.Set) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("workout_id", workoutID),
		attribute.Int("exercise_id", exerciseID),
	)

	var linkID int
	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		// shared lock: a concurrent delete of the workout waits for us
		if err := lockOwnedWorkout(ctx, q, owner, workoutID, "FOR SHARE"); err != nil {
			return err
		}

		var err error
		linkID, err = insertExercise(ctx, q, owner, workoutID, exerciseID, sets)
		return err
	})
	if err != nil {
		return 0, errs.FromStore(err)
	}

	return linkID, nil
}

// RemoveExercise deletes the performance records and the links of exerciseID in the
// owner's workout. Removing something that is not there succeeds.
func (r *Repo) RemoveExercise(ctx context.Context, owner, workoutID, exerciseID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.removeexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("workout_id", workoutID),
		attribute.Int("exercise_id", exerciseID),
	)

	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		perfTag, err := q.Exec(ctx, `
			DELETE FROM userworkoutperformance
			WHERE workout_id = $1 AND exercise_id = $2
			  AND EXISTS (SELECT 1 FROM workout WHERE id = $1 AND user_id = $3)
		`, workoutID, exerciseID, owner)
		if err != nil {
			return fmt.Errorf("delete performance records: %w", err)
		}

		linkTag, err := q.Exec(ctx, `
			DELETE FROM workoutexercises
			WHERE workout_id = $1 AND exercise_id = $2
			  AND EXISTS (SELECT 1 FROM workout WHERE id = $1 AND user_id = $3)
		`, workoutID, exerciseID, owner)
		if err != nil {
			return fmt.Errorf("delete workout exercises: %w", err)
		}

		span.SetAttributes(
			attribute.Int64("performance_rows", perfTag.RowsAffected()),
			attribute.Int64("link_rows", linkTag.RowsAffected()),
		)
		return nil
	})

	return errs.FromStore(err)
}
