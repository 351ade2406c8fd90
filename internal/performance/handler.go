package performance

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
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=performance_test

type setsService interface {
	Get(ctx context.Context, key Key) ([]Set, error)
	AddSet(ctx context.Context, key Key, reps int, weight float64) ([]Set, error)
	DeleteSet(ctx context.Context, key Key, setNumber int) ([]Set, error)
	UpdateSet(ctx context.Context, key Key, setNumber int, update SetUpdate) ([]Set, error)
}

type AddSetRequest struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
}

// OperationRequest drives all three mutations through one endpoint, as the mobile client does.
type OperationRequest struct {
	Operation string   `json:"operation"`
	SetNumber *int     `json:"set_number"`
	Reps      *int     `json:"reps"`
	Weight    *float64 `json:"weight"`
}

const (
	OperationAddSet    = "add_set"
	OperationDeleteSet = "delete_set"
	OperationUpdateSet = "update_set"
)

type SetsResponse struct {
	Message         string `json:"message,omitempty"`
	PerformanceData Record `json:"performance_data"`
}

type Handler struct {
	service setsService
}

func NewHandler(service setsService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.performance.get")
	defer span.End()

	key, ok := keyFromRequest(w, r)
	if !ok {
		return
	}

	sets, err := h.service.Get(ctx, key)
	if err != nil {
		writeError(w, "get sets", err)
		return
	}
	writeSets(w, "", sets)
}

func (h *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.performance.addset")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	key, ok := keyFromRequest(w, r)
	if !ok {
		return
	}

	var req AddSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add set, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reps == nil || req.Weight == nil {
		http.Error(w, "Missing required fields.", http.StatusBadRequest)
		return
	}

	sets, err := h.service.AddSet(ctx, key, *req.Reps, *req.Weight)
	if err != nil {
		writeError(w, "add set", err)
		return
	}
	writeSets(w, "Set added successfully.", sets)
}

func (h *Handler) HandleDeleteSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.performance.deleteset")
	defer span.End()

	key, ok := keyFromRequest(w, r)
	if !ok {
		return
	}
	setNumber, ok := intVar(w, r, "set")
	if !ok {
		return
	}

	sets, err := h.service.DeleteSet(ctx, key, setNumber)
	if err != nil {
		writeError(w, "delete set", err)
		return
	}
	writeSets(w, "Set deleted successfully.", sets)
}

func (h *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.performance.updateset")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	key, ok := keyFromRequest(w, r)
	if !ok {
		return
	}
	setNumber, ok := intVar(w, r, "set")
	if !ok {
		return
	}

	var update SetUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Tracef("update set, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sets, err := h.service.UpdateSet(ctx, key, setNumber, update)
	if err != nil {
		writeError(w, "update set", err)
		return
	}
	writeSets(w, "Set updated successfully.", sets)
}

// HandleOperation dispatches {"operation": "add_set" | "delete_set" | "update_set"}.
// For add_set a given set_number is ignored, new sets are always numbered last.
func (h *Handler) HandleOperation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.performance.operation")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	key, ok := keyFromRequest(w, r)
	if !ok {
		return
	}

	var req OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("set operation, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		sets []Set
		err  error
	)
	switch req.Operation {
	case OperationAddSet:
		if req.Reps == nil || req.Weight == nil {
			http.Error(w, "Missing reps or weight for add_set operation", http.StatusBadRequest)
			return
		}
		sets, err = h.service.AddSet(ctx, key, *req.Reps, *req.Weight)
	case OperationDeleteSet:
		if req.SetNumber == nil {
			http.Error(w, "Missing set_number for delete_set operation", http.StatusBadRequest)
			return
		}
		sets, err = h.service.DeleteSet(ctx, key, *req.SetNumber)
	case OperationUpdateSet:
		if req.SetNumber == nil {
			http.Error(w, "Missing set_number for update_set operation", http.StatusBadRequest)
			return
		}
		sets, err = h.service.UpdateSet(ctx, key, *req.SetNumber, SetUpdate{Reps: req.Reps, Weight: req.Weight})
	default:
		http.Error(w, "Invalid operation. Allowed operations: add_set, delete_set, update_set.", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, req.Operation, err)
		return
	}
	writeSets(w, "Performance data updated successfully", sets)
}

func keyFromRequest(w http.ResponseWriter, r *http.Request) (Key, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Key{}, false
	}
	workoutID, ok := intVar(w, r, "id")
	if !ok {
		return Key{}, false
	}
	exerciseID, ok := intVar(w, r, "exid")
	if !ok {
		return Key{}, false
	}
	return Key{UserID: userID, WorkoutID: workoutID, ExerciseID: exerciseID}, true
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

func writeSets(w http.ResponseWriter, message string, sets []Set) {
	if sets == nil {
		sets = []Set{}
	}
	resp, err := json.Marshal(SetsResponse{
		Message:         message,
		PerformanceData: Record{Sets: sets},
	})
	if err != nil {
		writeError(w, "marshal sets", errors.Join(errs.ErrStore, err))
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}
