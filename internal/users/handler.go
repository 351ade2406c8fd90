package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

type usersService interface {
	Signup(ctx context.Context, creds Credentials) (*User, error)
	Login(ctx context.Context, creds Credentials) (string, *User, error)
	Logout(ctx context.Context, token string) (bool, error)
	HasLoggedIn(ctx context.Context, userID int) (bool, error)
	MarkFirstLogin(ctx context.Context, userID int) (bool, error)
	GetMetrics(ctx context.Context, userID int) (*User, error)
	UpdateMetrics(ctx context.Context, userID int, update MetricsUpdate) (*User, error)
	DeleteAccount(ctx context.Context, userID int, token string) error
}

type UserResponse struct {
	User *User `json:"user"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

type Handler struct {
	service usersService
}

func NewHandler(service usersService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.signup")
	defer span.End()

	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.service.Signup(ctx, creds)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			http.Error(w, "Username already exists", http.StatusConflict)
			return
		}
		writeError(w, "signup", err)
		return
	}

	log.Debugf("new user signed up: %d", user.ID)
	writeJSON(w, UserResponse{User: user}, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	token, user, err := h.service.Login(ctx, creds)
	if err != nil {
		writeError(w, "login", err)
		return
	}

	log.Trace("new login success")
	writeJSON(w, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	}, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	token := r.Header.Get(auth.SessionTokenHeader)
	if token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := h.service.Logout(ctx, token)
	if err != nil {
		writeError(w, "logout", err)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (h *Handler) HandleHasLoggedIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.hasloggedin")
	defer span.End()

	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}

	hasLoggedIn, err := h.service.HasLoggedIn(ctx, userID)
	if err != nil {
		writeError(w, "has logged in", err)
		return
	}
	pkg.WriteTextResponseOK(w, strconv.FormatBool(hasLoggedIn))
}

func (h *Handler) HandleMarkFirstLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.markfirstlogin")
	defer span.End()

	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}

	hasLoggedIn, err := h.service.MarkFirstLogin(ctx, userID)
	if err != nil {
		writeError(w, "mark first login", err)
		return
	}
	pkg.WriteTextResponseOK(w, strconv.FormatBool(hasLoggedIn))
}

func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.getmetrics")
	defer span.End()

	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetMetrics(ctx, userID)
	if err != nil {
		writeError(w, "get metrics", err)
		return
	}
	writeJSON(w, UserResponse{User: user}, http.StatusOK)
}

func (h *Handler) HandleUpdateMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.updatemetrics")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}

	var update MetricsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update metrics, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateMetrics(ctx, userID, update)
	if err != nil {
		writeError(w, "update metrics", err)
		return
	}
	writeJSON(w, UserResponse{User: user}, http.StatusOK)
}

func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.deleteaccount")
	defer span.End()

	userID, ok := userFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(ctx, userID, r.Header.Get(auth.SessionTokenHeader)); err != nil {
		writeError(w, "delete account", err)
		return
	}

	log.Printf("user %d deleted", userID)
	pkg.WriteJSONResponseOK(w, `{"message":"User account and associated data successfully deleted."}`)
}

func readCredentials(w http.ResponseWriter, r *http.Request) (Credentials, bool) {
	var creds Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Tracef("unmarshal credentials: %s", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return Credentials{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Tracef("parse credentials form: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return Credentials{}, false
		}
		creds = Credentials{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return Credentials{}, false
	}
	return creds, true
}

func userFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %s", op, err)
	} else {
		log.Debugf("%s: %s", op, err)
	}
	http.Error(w, errs.Message(err), status)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	resp, err := json.Marshal(v)
	if err != nil {
		writeError(w, "marshal response", errors.Join(errs.ErrStore, err))
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, status)
}
