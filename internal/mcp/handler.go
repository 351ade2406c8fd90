package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
)

// Handler adapts contextService calls to MCP tool results.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) GetSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

func (h *Handler) ListExercisesTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		list, err := h.service.ListExercises(ctx)
		if err != nil {
			return errorResult("Error listing exercises: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

// UserWorkoutsInput is the input of list_user_workouts.
type UserWorkoutsInput struct {
	UserID int `json:"user_id" jsonschema:"Id of the user owning the workouts"`
}

func (h *Handler) ListUserWorkoutsTool() func(context.Context, *mcp.CallToolRequest, UserWorkoutsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserWorkoutsInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 {
			return errorResult("Invalid user_id: must be a positive integer"), nil, nil
		}
		list, err := h.service.ListUserWorkouts(ctx, in.UserID)
		if err != nil {
			return errorResult("Error listing workouts: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

// PerformanceInput is the input of get_performance.
type PerformanceInput struct {
	UserID     int `json:"user_id" jsonschema:"Id of the user who logged the sets"`
	WorkoutID  int `json:"workout_id" jsonschema:"Id of the workout"`
	ExerciseID int `json:"exercise_id" jsonschema:"Id of the exercise within the workout"`
}

func (h *Handler) GetPerformanceTool() func(context.Context, *mcp.CallToolRequest, PerformanceInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in PerformanceInput) (*mcp.CallToolResult, any, error) {
		if in.UserID <= 0 || in.WorkoutID <= 0 || in.ExerciseID <= 0 {
			return errorResult("Invalid input: user_id, workout_id and exercise_id must be positive integers"), nil, nil
		}
		sets, err := h.service.GetPerformance(ctx, performance.Key{
			UserID:     in.UserID,
			WorkoutID:  in.WorkoutID,
			ExerciseID: in.ExerciseID,
		})
		if err != nil {
			return errorResult("Error fetching performance: " + err.Error()), nil, nil
		}
		return jsonResult(performance.Record{Sets: sets}), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}
