package performance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

// MutateFunc computes the new set list from the current one.
// current is nil when the stored document is null.
type MutateFunc func(current []Set) ([]Set, error)

type Repo struct {
	gw *db.Gateway
}

func NewRepo(gw *db.Gateway) *Repo {
	return &Repo{
		gw: gw,
	}
}

func spanKey(key Key) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("user_id", key.UserID),
		attribute.Int("workout_id", key.WorkoutID),
		attribute.Int("exercise_id", key.ExerciseID),
	}
}

// Get returns the stored set list. A missing record is errs.ErrNotFound.
func (r *Repo) Get(ctx context.Context, key Key) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.performance.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(spanKey(key)...)

	var blob []byte
	err = r.gw.Querier().QueryRow(ctx, `
		SELECT performance_data
		FROM userworkoutperformance
		WHERE user_id = $1 AND workout_id = $2 AND exercise_id = $3
	`, key.UserID, key.WorkoutID, key.ExerciseID).Scan(&blob)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("get performance [%s]: %w", key, err))
	}

	return Decode(blob)
}

// Mutate reads the record under a row lock, applies fn and writes the result back,
// all in one transaction. Concurrent mutations of the same record are serialized.
func (r *Repo) Mutate(ctx context.Context, key Key, fn MutateFunc) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.performance.mutate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(spanKey(key)...)

	var result []Set
	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		var blob []byte
		if err := q.QueryRow(ctx, `
			SELECT performance_data
			FROM userworkoutperformance
			WHERE user_id = $1 AND workout_id = $2 AND exercise_id = $3
			FOR UPDATE
		`, key.UserID, key.WorkoutID, key.ExerciseID).Scan(&blob); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("performance [%s]: %w", key, errs.ErrNotFound)
			}
			return fmt.Errorf("lock performance [%s]: %w", key, err)
		}

		current, err := Decode(blob)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		encoded, err := Encode(next)
		if err != nil {
			return fmt.Errorf("encode performance: %w", err)
		}

		if _, err := q.Exec(ctx, `
			UPDATE userworkoutperformance
			SET performance_data = $4
			WHERE user_id = $1 AND workout_id = $2 AND exercise_id = $3
		`, key.UserID, key.WorkoutID, key.ExerciseID, encoded); err != nil {
			return fmt.Errorf("update performance [%s]: %w", key, err)
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, errs.FromStore(err)
	}

	span.SetAttributes(attribute.Int("sets", len(result)))
	return result, nil
}
