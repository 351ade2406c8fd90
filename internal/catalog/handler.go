package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=catalog_test

type catalogRepo interface {
	ListExercises(ctx context.Context) ([]Exercise, error)
	ExercisesInWorkout(ctx context.Context, viewer, workoutID int) ([]WorkoutExercise, error)
}

type Handler struct {
	repo catalogRepo
}

func NewHandler(repo catalogRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.listexercises")
	defer span.End()

	exercises, err := h.repo.ListExercises(ctx)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, errs.Message(err), errs.HTTPStatus(err))
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	writeJSON(w, exercises)
}

func (h *Handler) HandleExercisesInWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.catalog.exercisesinworkout")
	defer span.End()

	viewer, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || workoutID <= 0 {
		http.Error(w, "error, invalid id", http.StatusBadRequest)
		return
	}

	exercises, err := h.repo.ExercisesInWorkout(ctx, viewer, workoutID)
	if err != nil {
		log.Errorf("list workout %d exercises: %s", workoutID, err)
		http.Error(w, errs.Message(err), errs.HTTPStatus(err))
		return
	}
	if exercises == nil {
		exercises = []WorkoutExercise{}
	}

	writeJSON(w, exercises)
}

func writeJSON(w http.ResponseWriter, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal catalog response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}
