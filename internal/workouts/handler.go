package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsService interface {
	Create(ctx context.Context, owner int, nw NewWorkout) (int, error)
	Delete(ctx context.Context, owner, workoutID int) error
	UpdateProfile(ctx context.Context, owner, workoutID int, update ProfileUpdate) (*Workout, error)
	ListForUser(ctx context.Context, owner int) ([]Workout, error)
	GetTemplate(ctx context.Context, workoutID int) (*Workout, error)
	AddExercise(ctx context.Context, owner, workoutID, exerciseID int, sets []performance.Set) (int, error)
	RemoveExercise(ctx context.Context, owner, workoutID, exerciseID int) error
}

type AddExerciseRequest struct {
	ExerciseID      *int                `json:"exercise_id"`
	PerformanceData *performance.Record `json:"performance_data"`
}

type CreatedResponse struct {
	Message   string `json:"message"`
	WorkoutID int    `json:"workoutId"`
}

type ExerciseAddedResponse struct {
	Message           string `json:"message"`
	WorkoutExerciseID int    `json:"workoutExerciseId"`
}

type UpdatedResponse struct {
	Message string   `json:"message"`
	Workout *Workout `json:"workout"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handler struct {
	service workoutsService
}

func NewHandler(service workoutsService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.create")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	var nw NewWorkout
	if err := json.NewDecoder(r.Body).Decode(&nw); err != nil {
		log.Tracef("create workout, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	workoutID, err := h.service.Create(ctx, owner, nw)
	if err != nil {
		writeError(w, "create workout", err)
		return
	}

	log.Debugf("workout %d created by user %d", workoutID, owner)
	writeJSON(w, CreatedResponse{
		Message:   "Workout created successfully",
		WorkoutID: workoutID,
	}, http.StatusCreated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, owner, workoutID); err != nil {
		writeError(w, "delete workout", err)
		return
	}

	writeJSON(w, MessageResponse{Message: "Workout and associated data deleted successfully"}, http.StatusOK)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.updateprofile")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return
	}

	var update ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update workout, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	workout, err := h.service.UpdateProfile(ctx, owner, workoutID, update)
	if err != nil {
		writeError(w, "update workout", err)
		return
	}

	writeJSON(w, UpdatedResponse{
		Message: "Workout updated successfully.",
		Workout: workout,
	}, http.StatusOK)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	workouts, err := h.service.ListForUser(ctx, owner)
	if err != nil {
		writeError(w, "list workouts", err)
		return
	}
	if workouts == nil {
		workouts = []Workout{}
	}
	writeJSON(w, workouts, http.StatusOK)
}

func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.gettemplate")
	defer span.End()

	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return
	}

	workout, err := h.service.GetTemplate(ctx, workoutID)
	if err != nil {
		writeError(w, "get template", err)
		return
	}
	writeJSON(w, workout, http.StatusOK)
}

func (h *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.addexercise")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add exercise, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ExerciseID == nil || req.PerformanceData == nil {
		http.Error(w, "Missing required fields.", http.StatusBadRequest)
		return
	}
	sets := req.PerformanceData.Sets
	if sets == nil {
		sets = []performance.Set{}
	}

	linkID, err := h.service.AddExercise(ctx, owner, workoutID, *req.ExerciseID, sets)
	if err != nil {
		writeError(w, "add exercise", err)
		return
	}

	writeJSON(w, ExerciseAddedResponse{
		Message:           "Exercise successfully added to workout.",
		WorkoutExerciseID: linkID,
	}, http.StatusCreated)
}

func (h *Handler) HandleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.removeexercise")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return
	}
	exerciseID, ok := intVar(w, r, "exid")
	if !ok {
		return
	}

	if err := h.service.RemoveExercise(ctx, owner, workoutID, exerciseID); err != nil {
		writeError(w, "remove exercise", err)
		return
	}

	writeJSON(w, MessageResponse{Message: "Exercise successfully deleted from workout."}, http.StatusOK)
}

func ownerFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

func intVar(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	val, ok := mux.Vars(r)[name]
	if !ok {
		http.Error(w, fmt.Sprintf("error, %s not provided", name), http.StatusBadRequest)
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		http.Error(w, fmt.Sprintf("error, invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return n, true
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
