package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/metrics"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=users_test

const maxUsernameLength = 50

type usersRepo interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, string, error)
	Get(ctx context.Context, userID int) (*User, error)
	MarkFirstLogin(ctx context.Context, userID int) (bool, error)
	UpdateMetrics(ctx context.Context, userID int, update MetricsUpdate) (*User, error)
	Delete(ctx context.Context, userID int) error
}

type sessions interface {
	Login(ctx context.Context, userID int, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type Service struct {
	repo           usersRepo
	sessions       sessions
	metricsManager *metrics.Manager
	// ability to inject password hashing funcs (for unit testing)
	HashPasswordFunc  func(password string) (string, error)
	CheckPasswordFunc func(password, hash string) bool
}

func NewService(repo usersRepo, sessions sessions, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:              repo,
		sessions:          sessions,
		metricsManager:    metricsManager,
		HashPasswordFunc:  pkg.HashPassword,
		CheckPasswordFunc: pkg.CheckPasswordHash,
	}
}

func validateCredentials(creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return errs.Validationf("username and password are required")
	}
	if len(creds.Username) > maxUsernameLength {
		return errs.Validationf("username longer than %d characters", maxUsernameLength)
	}
	return nil
}

func validateUserID(userID int) error {
	if userID <= 0 {
		return errs.Validationf("user id must be positive")
	}
	return nil
}

func (s *Service) Signup(ctx context.Context, creds Credentials) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	hash, err := s.HashPasswordFunc(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", errs.ErrStore, err)
	}

	user, err := s.repo.Create(ctx, creds.Username, hash)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	span.SetAttributes(attribute.Int("user_id", user.ID))
	if s.metricsManager != nil {
		s.metricsManager.CounterSignups.Inc()
	}
	return user, nil
}

// Login verifies the credentials and opens a session. Unknown users and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, creds Credentials) (_ string, _ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateCredentials(creds); err != nil {
		return "", nil, err
	}

	user, hash, err := s.repo.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Tracef("[username] failed login attempt for user: %s", creds.Username)
			return "", nil, errs.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !s.CheckPasswordFunc(creds.Password, hash) {
		log.Tracef("[password] failed login attempt for user: %s", creds.Username)
		return "", nil, errs.ErrInvalidCredentials
	}

	token, err := s.sessions.Login(ctx, user.ID, time.Now())
	if err != nil {
		return "", nil, fmt.Errorf("%w: create session: %w", errs.ErrStore, err)
	}

	span.SetAttributes(attribute.Int("user_id", user.ID))
	return token, user, nil
}

// Logout ends the session. An unknown token reports false.
func (s *Service) Logout(ctx context.Context, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.logout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if token == "" {
		return false, nil
	}

	loggedOut, err := s.sessions.Logout(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%w: logout: %w", errs.ErrStore, err)
	}
	return loggedOut, nil
}

func (s *Service) HasLoggedIn(ctx context.Context, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.hasloggedin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateUserID(userID); err != nil {
		return false, err
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("has logged in: %w", err)
	}
	return user.HasLoggedIn, nil
}

func (s *Service) MarkFirstLogin(ctx context.Context, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.markfirstlogin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateUserID(userID); err != nil {
		return false, err
	}

	hasLoggedIn, err := s.repo.MarkFirstLogin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("mark first login: %w", err)
	}
	return hasLoggedIn, nil
}

func (s *Service) GetMetrics(ctx context.Context, userID int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.getmetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateMetrics(ctx context.Context, userID int, update MetricsUpdate) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.updatemetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if update.Empty() {
		return nil, fmt.Errorf("%w: height, weight or experience_type required", errs.ErrNoFields)
	}
	if update.Height != nil && *update.Height <= 0 {
		return nil, errs.Validationf("height must be positive")
	}
	if update.Weight != nil && *update.Weight <= 0 {
		return nil, errs.Validationf("weight must be positive")
	}

	user, err := s.repo.UpdateMetrics(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("update metrics: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the user and its data, then ends the given session.
func (s *Service) DeleteAccount(ctx context.Context, userID int, token string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.deleteaccount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateUserID(userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if token != "" {
		if _, err := s.sessions.Logout(ctx, token); err != nil {
			log.Warnf("delete account %d, end session: %s", userID, err)
		}
	}
	return nil
}
