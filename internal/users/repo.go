package users

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

const userColumns = "id, username, height, weight, experience_type, has_logged_in"

type Repo struct {
	gw *db.Gateway
}

func NewRepo(gw *db.Gateway) *Repo {
	return &Repo{
		gw: gw,
	}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Height, &u.Weight, &u.ExperienceType, &u.HasLoggedIn); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repo) Create(ctx context.Context, username, passwordHash string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	u, err := scanUser(r.gw.Querier().QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING `+userColumns,
		username, passwordHash,
	))
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("insert user %s: %w", username, err))
	}

	span.SetAttributes(attribute.Int("user_id", u.ID))
	return u, nil
}

// GetByUsername returns the user together with its password hash.
func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, _ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getbyusername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	u := &User{}
	var hash string
	err = r.gw.Querier().QueryRow(ctx,
		`SELECT `+userColumns+`, password FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Height, &u.Weight, &u.ExperienceType, &u.HasLoggedIn, &hash)
	if err != nil {
		return nil, "", errs.FromStore(fmt.Errorf("get user %s: %w", username, err))
	}

	return u, hash, nil
}

func (r *Repo) Get(ctx context.Context, userID int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	u, err := scanUser(r.gw.Querier().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	))
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("get user %d: %w", userID, err))
	}
	return u, nil
}

func (r *Repo) MarkFirstLogin(ctx context.Context, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.markfirstlogin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	var hasLoggedIn bool
	err = r.gw.Querier().QueryRow(ctx,
		`UPDATE users SET has_logged_in = true WHERE id = $1 RETURNING has_logged_in`,
		userID,
	).Scan(&hasLoggedIn)
	if err != nil {
		return false, errs.FromStore(fmt.Errorf("mark first login %d: %w", userID, err))
	}
	return hasLoggedIn, nil
}

func (r *Repo) UpdateMetrics(ctx context.Context, userID int, update MetricsUpdate) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updatemetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	b := db.NewUpdateBuilder("users", "height", "weight", "experience_type")
	db.SetIf(b, "height", update.Height)
	db.SetIf(b, "weight", update.Weight)
	db.SetIf(b, "experience_type", update.ExperienceType)
	b.Where("id", userID)

	sql, args, err := b.Build("id", "username", "height", "weight", "experience_type", "has_logged_in")
	if err != nil {
		if errors.Is(err, db.ErrNoAssignments) {
			return nil, errs.ErrNoFields
		}
		return nil, err
	}

	u, err := scanUser(r.gw.Querier().QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, errs.FromStore(fmt.Errorf("update metrics %d: %w", userID, err))
	}
	return u, nil
}

// Delete removes the user with every workout, link and performance record it owns.
// Other users' records in the deleted workouts go as well.
func (r *Repo) Delete(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user_id", userID))

	err = r.gw.WithTx(ctx, func(q db.Querier) error {
		var id int
		if err := q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if _, err := q.Exec(ctx, `
			DELETE FROM userworkoutperformance
			WHERE user_id = $1
			   OR workout_id IN (SELECT id FROM workout WHERE user_id = $1)
		`, userID); err != nil {
			return fmt.Errorf("delete performance records: %w", err)
		}
		if _, err := q.Exec(ctx, `
			DELETE FROM workoutexercises
			WHERE workout_id IN (SELECT id FROM workout WHERE user_id = $1)
		`, userID); err != nil {
			return fmt.Errorf("delete workout exercises: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM workout WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete workouts: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})

	return errs.FromStore(err)
}
