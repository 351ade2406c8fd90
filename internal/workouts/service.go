package workouts

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/metrics"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Create(ctx context.Context, owner int, nw NewWorkout) (int, error)
	Delete(ctx context.Context, owner, workoutID int) error
	UpdateProfile(ctx context.Context, owner, workoutID int, update ProfileUpdate) (*Workout, error)
	ListForUser(ctx context.Context, owner int) ([]Workout, error)
	GetTemplate(ctx context.Context, workoutID int) (*Workout, error)
	AddExercise(ctx context.Context, owner, workoutID, exerciseID int, sets []performance.Set) (int, error)
	RemoveExercise(ctx context.Context, owner, workoutID, exerciseID int) error
}

type Service struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewService(repo workoutsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func validateIDs(owner, workoutID int) error {
	if owner <= 0 {
		return errs.Validationf("user id must be positive")
	}
	if workoutID <= 0 {
		return errs.Validationf("workout id must be positive")
	}
	return nil
}

func validateNewWorkout(owner int, nw NewWorkout) error {
	if owner <= 0 {
		return errs.Validationf("user id must be positive")
	}
	if strings.TrimSpace(nw.Name) == "" {
		return errs.Validationf("name is required")
	}
	if strings.TrimSpace(nw.Description) == "" {
		return errs.Validationf("description is required")
	}
	seen := make(map[int]struct{}, len(nw.Exercises))
	for _, ex := range nw.Exercises {
		if ex.ExerciseID <= 0 {
			return errs.Validationf("exercise id must be positive, got %d", ex.ExerciseID)
		}
		// one performance record per (user, workout, exercise)
		if _, ok := seen[ex.ExerciseID]; ok {
			return errs.Validationf("exercise %d listed twice", ex.ExerciseID)
		}
		seen[ex.ExerciseID] = struct{}{}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, owner int, nw NewWorkout) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateNewWorkout(owner, nw); err != nil {
		return 0, err
	}

	workoutID, err := s.repo.Create(ctx, owner, nw)
	if err != nil {
		return 0, fmt.Errorf("create workout: %w", err)
	}

	span.SetAttributes(attribute.Int("workout_id", workoutID))
	if s.metricsManager != nil {
		s.metricsManager.CounterWorkoutsCreated.Inc()
	}
	return workoutID, nil
}

func (s *Service) Delete(ctx context.Context, owner, workoutID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateIDs(owner, workoutID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, owner, workoutID); err != nil {
		return fmt.Errorf("delete workout %d: %w", workoutID, err)
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterWorkoutsDeleted.Inc()
	}
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, owner, workoutID int, update ProfileUpdate) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.updateprofile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateIDs(owner, workoutID); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: name, description or is_public required", errs.ErrNoFields)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, errs.Validationf("name must not be empty")
	}
	if update.Description != nil && strings.TrimSpace(*update.Description) == "" {
		return nil, errs.Validationf("description must not be empty")
	}

	w, err := s.repo.UpdateProfile(ctx, owner, workoutID, update)
	if err != nil {
		return nil, fmt.Errorf("update workout %d: %w", workoutID, err)
	}
	return w, nil
}

func (s *Service) ListForUser(ctx context.Context, owner int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if owner <= 0 {
		return nil, errs.Validationf("user id must be positive")
	}

	workouts, err := s.repo.ListForUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	if workouts == nil {
		workouts = []Workout{}
	}
	span.SetAttributes(attribute.Int("workouts", len(workouts)))
	return workouts, nil
}

func (s *Service) GetTemplate(ctx context.Context, workoutID int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.gettemplate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workoutID <= 0 {
		return nil, errs.Validationf("workout id must be positive")
	}

	w, err := s.repo.GetTemplate(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("get template %d: %w", workoutID, err)
	}
	return w, nil
}

// AddExercise requires an initial set list; an empty list is fine, a missing one is not.
func (s *Service) AddExercise(ctx context.Context, owner, workoutID, exerciseID int, sets []performance.Set) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateIDs(owner, workoutID); err != nil {
		return 0, err
	}
	if exerciseID <= 0 {
		return 0, errs.Validationf("exercise id must be positive")
	}
	if sets == nil {
		return 0, errs.Validationf("performance data is required")
	}

	linkID, err := s.repo.AddExercise(ctx, owner, workoutID, exerciseID, sets)
	if err != nil {
		return 0, fmt.Errorf("add exercise %d to workout %d: %w", exerciseID, workoutID, err)
	}
	return linkID, nil
}

func (s *Service) RemoveExercise(ctx context.Context, owner, workoutID, exerciseID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.removeexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateIDs(owner, workoutID); err != nil {
		return err
	}
	if exerciseID <= 0 {
		return errs.Validationf("exercise id must be positive")
	}

	if err := s.repo.RemoveExercise(ctx, owner, workoutID, exerciseID); err != nil {
		return fmt.Errorf("remove exercise %d from workout %d: %w", exerciseID, workoutID, err)
	}
	return nil
}
