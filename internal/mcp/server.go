package mcp

import (
	"crypto/subtle"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/catalog"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/workouts"
)

// SecretHeader carries the shared secret of the HTTP mounted server.
const SecretHeader = "X-MCP-Secret"

// NewServer builds the MCP server with the read-only workout tools.
// It is served over stdio by cmd/workouts_mcp and over HTTP at /mcp.
func NewServer(gw *db.Gateway) *mcp.Server {
	svc := NewContextService(
		NewSchemaRepo(gw),
		catalog.NewRepo(gw),
		workouts.NewService(workouts.NewRepo(gw), nil),
		performance.NewService(performance.NewRepo(gw), nil),
	)
	return newServer(NewHandler(svc))
}

func newServer(h *Handler) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "workouts-context",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_schema",
		Description: "Returns the DB schema of the workout tables (users, exercise, workout, workoutexercises, userworkoutperformance): columns, types, nullable, default.",
	}, h.GetSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_exercises",
		Description: "Returns the exercise catalog (id, name, description, muscle group).",
	}, h.ListExercisesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_user_workouts",
		Description: "Returns the workouts of a user with their exercises and logged sets. Arg: user_id.",
	}, h.ListUserWorkoutsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_performance",
		Description: "Returns the sets logged by a user for one exercise of a workout. Args: user_id, workout_id, exercise_id.",
	}, h.GetPerformanceTool())

	return s
}

// HTTPHandler serves s over streamable HTTP. Requests without the matching
// SecretHeader are rejected; an empty secret rejects everything.
func HTTPHandler(s *mcp.Server, secret string) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s
	}, nil)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(SecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.Tracef("mcp: rejected request from %s", r.RemoteAddr)
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		streamable.ServeHTTP(w, r)
	})
}
