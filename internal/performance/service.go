package performance

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/metrics"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=performance_test

type setsRepo interface {
	Get(ctx context.Context, key Key) ([]Set, error)
	Mutate(ctx context.Context, key Key, fn MutateFunc) ([]Set, error)
}

const (
	opAdd    = "add"
	opDelete = "delete"
	opUpdate = "update"
)

type Service struct {
	repo           setsRepo
	metricsManager *metrics.Manager
}

func NewService(repo setsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func validateKey(key Key) error {
	switch {
	case key.UserID <= 0:
		return errs.Validationf("user id must be positive")
	case key.WorkoutID <= 0:
		return errs.Validationf("workout id must be positive")
	case key.ExerciseID <= 0:
		return errs.Validationf("exercise id must be positive")
	}
	return nil
}

func validateSetNumber(setNumber int) error {
	if setNumber <= 0 {
		return errs.Validationf("set number must be positive")
	}
	return nil
}

// Get returns the set list of the record. A null document reads as an empty list.
func (s *Service) Get(ctx context.Context, key Key) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.performance.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	sets, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get sets: %w", err)
	}
	if sets == nil {
		sets = []Set{}
	}
	return sets, nil
}

func (s *Service) AddSet(ctx context.Context, key Key, reps int, weight float64) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.performance.addset")
	defer func() {
		s.countMutation(opAdd, err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateKey(key); err != nil {
		return nil, err
	}

	sets, err := s.repo.Mutate(ctx, key, func(current []Set) ([]Set, error) {
		return AddSet(current, reps, weight), nil
	})
	if err != nil {
		return nil, fmt.Errorf("add set: %w", err)
	}
	span.SetAttributes(attribute.Int("sets", len(sets)))
	return sets, nil
}

func (s *Service) DeleteSet(ctx context.Context, key Key, setNumber int) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.performance.deleteset")
	defer func() {
		s.countMutation(opDelete, err)
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("set", setNumber))

	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := validateSetNumber(setNumber); err != nil {
		return nil, err
	}

	sets, err := s.repo.Mutate(ctx, key, func(current []Set) ([]Set, error) {
		return DeleteSet(current, setNumber)
	})
	if err != nil {
		return nil, fmt.Errorf("delete set %d: %w", setNumber, err)
	}
	return sets, nil
}

func (s *Service) UpdateSet(ctx context.Context, key Key, setNumber int, update SetUpdate) (_ []Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.performance.updateset")
	defer func() {
		s.countMutation(opUpdate, err)
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("set", setNumber))

	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := validateSetNumber(setNumber); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: reps or weight required", errs.ErrNoFields)
	}

	sets, err := s.repo.Mutate(ctx, key, func(current []Set) ([]Set, error) {
		return UpdateSet(current, setNumber, update)
	})
	if err != nil {
		return nil, fmt.Errorf("update set %d: %w", setNumber, err)
	}
	return sets, nil
}

func (s *Service) countMutation(op string, err error) {
	if s.metricsManager == nil {
		return
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeClientError
		if errors.Is(err, errs.ErrStore) || errs.HTTPStatus(err) >= 500 {
			outcome = metrics.OutcomeError
		}
	}
	s.metricsManager.CounterSetMutations.WithLabelValues(op, outcome).Inc()
}
