package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

var profileColumns = []string{"name", "description", "is_public"}

// Repo persists the workout aggregate: the workout row, its exercise links and
// the performance records seeded for them. Multi row writes run in one transaction.
type Repo struct {
	gw *db.Gateway
}

func NewRepo(gw *db.Gateway) *Repo {
	return &Repo{
		gw: gw,
	}
}

func (r *Repo) Create(ctx context.Context, owner int, nw NewWorkout) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("owner", owner),
		attribute.Int("exercises", len(nw.Exercises)),
	)

	isPublic := false
	if nw.IsPublic != nil {
		isPublic = *nw.IsPublic
	}

	var workoutID int
	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		if err := q.QueryRow(ctx, `
			INSERT INTO workout (name, description, is_public, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, nw.Name, nw.Description, isPublic, owner).Scan(&workoutID); err != nil {
			return fmt.Errorf("insert workout: %w", err)
		}

		for _, ex := range nw.Exercises {
			if _, err := insertExercise(ctx, q, owner, workoutID, ex.ExerciseID, ex.PerformanceData.Sets); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, errs.FromStore(err)
	}

	span.SetAttributes(attribute.Int("workout_id", workoutID))
	return workoutID, nil
}

// Delete removes the workout with all its links and performance records.
func (r *Repo) Delete(ctx context.Context, owner, workoutID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("owner", owner),
		attribute.Int("workout_id", workoutID),
	)

	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		if err := lockOwnedWorkout(ctx, q, owner, workoutID, "FOR UPDATE"); err != nil {
			return err
		}

		if _, err := q.Exec(ctx, `DELETE FROM userworkoutperformance WHERE workout_id = $1`, workoutID); err != nil {
			return fmt.Errorf("delete performance records: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM workoutexercises WHERE workout_id = $1`, workoutID); err != nil {
			return fmt.Errorf("delete workout exercises: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM workout WHERE id = $1 AND user_id = $2`, workoutID, owner); err != nil {
			return fmt.Errorf("delete workout: %w", err)
		}
		return nil
	})

	return errs.FromStore(err)
}

func (r *Repo) UpdateProfile(ctx context.Context, owner, workoutID int, update ProfileUpdate) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateprofile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_id", workoutID))

	b := db.NewUpdateBuilder("workout", profileColumns...)
	db.SetIf(b, "name", update.Name)
	db.SetIf(b, "description", update.Description)
	db.SetIf(b, "is_public", update.IsPublic)
	b.Where("id", workoutID).Where("user_id", owner)

	sql, args, err := b.Build("id", "name", "description", "is_public", "user_id")
	if err != nil {
		if errors.Is(err, db.ErrNoAssignments) {
			return nil, errs.ErrNoFields
		}
		return nil, err
	}

	w := &Workout{}
	err = r.gw.Querier().QueryRow(ctx, sql, args...).
		Scan(&w.ID, &w.Name, &w.Description, &w.IsPublic, &w.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("workout %d: %w", workoutID, errs.ErrNotFoundOrForbidden)
		}
		return nil, errs.FromStore(fmt.Errorf("update workout: %w", err))
	}

	return w, nil
}

// ListForUser returns the owner's workouts ordered by id, each with its exercises' performance data.
func (r *Repo) ListForUser(ctx context.Context, owner int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("owner", owner))

	q := r.gw.Querier()
	rows, err := q.Query(ctx, `
		SELECT id, name, description, is_public, user_id
		FROM workout
		WHERE user_id = $1
		ORDER BY id
	`, owner)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("list workouts: %w", err))
	}

	workouts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Workout, error) {
		var w Workout
		err := row.Scan(&w.ID, &w.Name, &w.Description, &w.IsPublic, &w.UserID)
		return w, err
	})
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("scan workouts: %w", err))
	}
	if len(workouts) == 0 {
		return []Workout{}, nil
	}

	ids := make([]int, len(workouts))
	index := make(map[int]int, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
		index[w.ID] = i
	}

	perfRows, err := q.Query(ctx, `
		SELECT workout_id, exercise_id, performance_data
		FROM userworkoutperformance
		WHERE user_id = $1 AND workout_id = ANY($2)
		ORDER BY workout_id, exercise_id
	`, owner, ids)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("list performance: %w", err))
	}
	defer perfRows.Close()

	for perfRows.Next() {
		var (
			workoutID, exerciseID int
			blob                  []byte
		)
		if err := perfRows.Scan(&workoutID, &exerciseID, &blob); err != nil {
			return nil, errs.FromStore(fmt.Errorf("scan performance: %w", err))
		}
		sets, err := performance.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("workout %d exercise %d: %w", workoutID, exerciseID, err)
		}
		if sets == nil {
			sets = []performance.Set{}
		}
		i := index[workoutID]
		workouts[i].Exercises = append(workouts[i].Exercises, WorkoutExercise{
			ExerciseID:      exerciseID,
			PerformanceData: &performance.Record{Sets: sets},
		})
	}
	if err := perfRows.Err(); err != nil {
		return nil, errs.FromStore(err)
	}

	return workouts, nil
}

// GetTemplate returns a public workout with its exercise links. Private workouts read as missing.
func (r *Repo) GetTemplate(ctx context.Context, workoutID int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.gettemplate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout_id", workoutID))

	q := r.gw.Querier()
	w := &Workout{}
	err = q.QueryRow(ctx, `
		SELECT id, name, description, is_public, user_id
		FROM workout
		WHERE id = $1 AND is_public = true
	`, workoutID).Scan(&w.ID, &w.Name, &w.Description, &w.IsPublic, &w.UserID)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("get template %d: %w", workoutID, err))
	}

	rows, err := q.Query(ctx, `
		SELECT id, exercise_id
		FROM workoutexercises
		WHERE workout_id = $1
		ORDER BY id
	`, workoutID)
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("get template exercises: %w", err))
	}
	w.Exercises, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (WorkoutExercise, error) {
		var we WorkoutExercise
		err := row.Scan(&we.LinkID, &we.ExerciseID)
		return we, err
	})
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("scan template exercises: %w", err))
	}

	return w, nil
}

// lockOwnedWorkout fails with ErrNotFoundOrForbidden unless the workout exists and belongs to owner.
func lockOwnedWorkout(ctx context.Context, q db.Querier, owner, workoutID int, lock string) error {
	var id int
	err := q.QueryRow(ctx,
		`SELECT id FROM workout WHERE id = $1 AND user_id = $2 `+lock,
		workoutID, owner,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("workout %d: %w", workoutID, errs.ErrNotFoundOrForbidden)
		}
		return fmt.Errorf("check workout owner: %w", err)
	}
	return nil
}

// insertExercise links an exercise to a workout and seeds its performance record.
// Initial sets are renumbered 1..n.
func insertExercise(ctx context.Context, q db.Querier, owner, workoutID, exerciseID int, sets []performance.Set) (int, error) {
	var linkID int
	if err := q.QueryRow(ctx, `
		INSERT INTO workoutexercises (exercise_id, workout_id)
		VALUES ($1, $2)
		RETURNING id
	`, exerciseID, workoutID).Scan(&linkID); err != nil {
		return 0, fmt.Errorf("insert workout exercise %d: %w", exerciseID, err)
	}

	blob, err := performance.Encode(performance.Renumber(sets))
	if err != nil {
		return 0, fmt.Errorf("encode initial sets: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO userworkoutperformance (user_id, workout_id, exercise_id, performance_data)
		VALUES ($1, $2, $3, $4)
	`, owner, workoutID, exerciseID, blob); err != nil {
		return 0, fmt.Errorf("insert performance record for exercise %d: %w", exerciseID, err)
	}

	return linkID, nil
}
