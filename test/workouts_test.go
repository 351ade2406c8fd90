//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/workouts"
)

type setsResponse struct {
	Message         string             `json:"message"`
	PerformanceData performance.Record `json:"performance_data"`
}

func (s *IntegrationTestSuite) createWorkout(ctx context.Context, token string, nw workouts.NewWorkout) int {
	t := s.T()
	status, body := s.do(ctx, http.MethodPost, "/workouts", token, nw)
	require.Equal(t, http.StatusCreated, status, string(body))

	var created workouts.CreatedResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.Positive(t, created.WorkoutID)
	return created.WorkoutID
}

func (s *IntegrationTestSuite) countRows(query string, args ...any) int {
	var n int
	require.NoError(s.T(), s.DB.QueryRow(query, args...).Scan(&n))
	return n
}

func (s *IntegrationTestSuite) TestCreateWorkout_Atomic() {
	ctx := context.Background()
	t := s.T()
	token, userID := s.signupAndLogin(ctx, "atomic-user")

	// exercise 999 does not exist, nothing of the workout may survive
	status, body := s.do(ctx, http.MethodPost, "/workouts", token, workouts.NewWorkout{
		Name:        "Broken",
		Description: "references a missing exercise",
		Exercises: []workouts.NewWorkoutExercise{
			{ExerciseID: 1, PerformanceData: performance.Record{Sets: []performance.Set{{Set: 1, Reps: 10, Weight: 60}}}},
			{ExerciseID: 999},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "invalid reference")
	assert.Zero(t, s.countRows(`SELECT count(*) FROM workout WHERE user_id = $1`, userID))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM userworkoutperformance WHERE user_id = $1`, userID))

	workoutID := s.createWorkout(ctx, token, workouts.NewWorkout{
		Name:        "Push day",
		Description: "chest and triceps",
		Exercises: []workouts.NewWorkoutExercise{
			{ExerciseID: 1, PerformanceData: performance.Record{Sets: []performance.Set{
				{Set: 4, Reps: 10, Weight: 60},
				{Set: 9, Reps: 8, Weight: 70},
			}}},
		},
	})

	status, body = s.do(ctx, http.MethodGet, "/workouts", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []workouts.Workout
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, workoutID, list[0].ID)
	require.Len(t, list[0].Exercises, 1)
	require.NotNil(t, list[0].Exercises[0].PerformanceData)
	// stored sets are renumbered from 1
	assert.Equal(t, []performance.Set{{Set: 1, Reps: 10, Weight: 60}, {Set: 2, Reps: 8, Weight: 70}},
		list[0].Exercises[0].PerformanceData.Sets)
}

func (s *IntegrationTestSuite) TestWorkouts_Ownership() {
	ctx := context.Background()
	t := s.T()
	ownerToken, _ := s.signupAndLogin(ctx, "owner-user")
	otherToken, _ := s.signupAndLogin(ctx, "other-user")

	workoutID := s.createWorkout(ctx, ownerToken, workouts.NewWorkout{
		Name:        "Leg day",
		Description: "squats",
		Exercises:   []workouts.NewWorkoutExercise{{ExerciseID: 2}},
	})
	path := fmt.Sprintf("/workouts/%d", workoutID)

	status, _ := s.do(ctx, http.MethodPut, path, otherToken, map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(ctx, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(ctx, http.MethodPost, path+"/exercises", otherToken, map[string]any{
		"exercise_id":      3,
		"performance_data": map[string]any{"sets": []any{}},
	})
	assert.Equal(t, http.StatusNotFound, status)

	// private workouts are neither templates nor visible to others
	status, _ = s.do(ctx, http.MethodGet, fmt.Sprintf("/workouts/templates/%d", workoutID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, body := s.do(ctx, http.MethodGet, path+"/exercises", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = s.do(ctx, http.MethodPut, path, ownerToken, map[string]any{"is_public": true})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = s.do(ctx, http.MethodGet, fmt.Sprintf("/workouts/templates/%d", workoutID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"Leg day"`)

	status, _ = s.do(ctx, http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, s.countRows(`SELECT count(*) FROM workout WHERE id = $1`, workoutID))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM workoutexercises WHERE workout_id = $1`, workoutID))
}

func (s *IntegrationTestSuite) TestRemoveExercise_Idempotent() {
	ctx := context.Background()
	t := s.T()
	token, _ := s.signupAndLogin(ctx, "remove-user")

	workoutID := s.createWorkout(ctx, token, workouts.NewWorkout{
		Name:        "Pull day",
		Description: "back",
		Exercises:   []workouts.NewWorkoutExercise{{ExerciseID: 3}},
	})
	path := fmt.Sprintf("/workouts/%d/exercises/3", workoutID)

	for i := 0; i < 2; i++ {
		status, body := s.do(ctx, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"message":"Exercise successfully deleted from workout."}`, string(body))
	}
	assert.Zero(t, s.countRows(`SELECT count(*) FROM workoutexercises WHERE workout_id = $1`, workoutID))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM userworkoutperformance WHERE workout_id = $1`, workoutID))
}

func (s *IntegrationTestSuite) TestSetOperations() {
	ctx := context.Background()
	t := s.T()
	token, _ := s.signupAndLogin(ctx, "sets-user")
	otherToken, _ := s.signupAndLogin(ctx, "sets-other-user")

	workoutID := s.createWorkout(ctx, token, workouts.NewWorkout{
		Name:        "Full body",
		Description: "everything",
	})

	status, body := s.do(ctx, http.MethodPost, fmt.Sprintf("/workouts/%d/exercises", workoutID), token, map[string]any{
		"exercise_id":      1,
		"performance_data": map[string]any{"sets": []any{}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	setsPath := fmt.Sprintf("/workouts/%d/exercises/1/sets", workoutID)
	readSets := func(status int, body []byte) []performance.Set {
		require.Equal(t, http.StatusOK, status, string(body))
		var resp setsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		return resp.PerformanceData.Sets
	}

	assert.Empty(t, readSets(s.do(ctx, http.MethodGet, setsPath, token, nil)))

	readSets(s.do(ctx, http.MethodPost, setsPath, token, map[string]any{"reps": 10, "weight": 60}))
	readSets(s.do(ctx, http.MethodPost, setsPath, token, map[string]any{"reps": 8, "weight": 65}))
	sets := readSets(s.do(ctx, http.MethodPatch, setsPath, token, map[string]any{
		"operation": "add_set", "reps": 6, "weight": 70,
	}))
	assert.Equal(t, []performance.Set{
		{Set: 1, Reps: 10, Weight: 60},
		{Set: 2, Reps: 8, Weight: 65},
		{Set: 3, Reps: 6, Weight: 70},
	}, sets)

	sets = readSets(s.do(ctx, http.MethodPut, setsPath+"/2", token, map[string]any{"weight": 67.5}))
	assert.Equal(t, performance.Set{Set: 2, Reps: 8, Weight: 67.5}, sets[1])

	sets = readSets(s.do(ctx, http.MethodDelete, setsPath+"/1", token, nil))
	assert.Equal(t, []performance.Set{
		{Set: 1, Reps: 8, Weight: 67.5},
		{Set: 2, Reps: 6, Weight: 70},
	}, sets)

	status, _ = s.do(ctx, http.MethodDelete, setsPath+"/7", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(ctx, http.MethodPatch, setsPath, token, map[string]any{"operation": "explode"})
	assert.Equal(t, http.StatusBadRequest, status)

	// sets are keyed by the session user, the other user has no record here
	status, _ = s.do(ctx, http.MethodGet, setsPath, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(ctx, http.MethodPost, setsPath, otherToken, map[string]any{"reps": 1, "weight": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Len(t, readSets(s.do(ctx, http.MethodGet, setsPath, token, nil)), 2)
}

func (s *IntegrationTestSuite) TestAddSet_ConcurrentNoLostUpdates() {
	ctx := context.Background()
	t := s.T()
	token, _ := s.signupAndLogin(ctx, "concurrent-sets-user")

	workoutID := s.createWorkout(ctx, token, workouts.NewWorkout{
		Name:        "Volume day",
		Description: "many sets at once",
		Exercises:   []workouts.NewWorkoutExercise{{ExerciseID: 2}},
	})
	setsPath := fmt.Sprintf("/workouts/%d/exercises/2/sets", workoutID)

	const writers = 20
	statuses := make([]int, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = s.postSet(ctx, token, setsPath, i+1)
		}(i)
	}
	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "writer %d", i)
	}

	status, body := s.do(ctx, http.MethodGet, setsPath, token, nil)
	require.Equal(t, http.StatusOK, status)
	var resp setsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.PerformanceData.Sets, writers)

	seenReps := make(map[int]bool, writers)
	for i, set := range resp.PerformanceData.Sets {
		assert.Equal(t, i+1, set.Set)
		seenReps[set.Reps] = true
	}
	assert.Len(t, seenReps, writers)
}

// postSet adds one set without the suite's require helpers, it runs off the test goroutine.
func (s *IntegrationTestSuite) postSet(ctx context.Context, token, path string, reps int) int {
	raw, err := json.Marshal(map[string]any{"reps": reps, "weight": 50})
	if err != nil {
		return 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+path, bytes.NewReader(raw))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.SessionTokenHeader, token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func (s *IntegrationTestSuite) TestDeleteAccount() {
	ctx := context.Background()
	t := s.T()
	token, userID := s.signupAndLogin(ctx, "leaving-user")

	s.createWorkout(ctx, token, workouts.NewWorkout{
		Name:        "Last one",
		Description: "bye",
		Exercises:   []workouts.NewWorkoutExercise{{ExerciseID: 1}, {ExerciseID: 2}},
	})

	status, body := s.do(ctx, http.MethodDelete, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM users WHERE id = $1`, userID))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM workout WHERE user_id = $1`, userID))
	assert.Zero(t, s.countRows(`SELECT count(*) FROM userworkoutperformance WHERE user_id = $1`, userID))

	// the session ended with the account
	status, _ = s.do(ctx, http.MethodGet, "/workouts", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
