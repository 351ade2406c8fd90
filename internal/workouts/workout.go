package workouts

import "github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"

type Workout struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IsPublic    bool              `json:"is_public"`
	UserID      int               `json:"user_id"`
	Exercises   []WorkoutExercise `json:"exercises,omitempty"`
}

// WorkoutExercise is one exercise of a workout. Listings of the owner's workouts carry
// the performance data; templates carry the link id only.
type WorkoutExercise struct {
	LinkID          int                 `json:"workout_exercise_id,omitempty"`
	ExerciseID      int                 `json:"exercise_id"`
	PerformanceData *performance.Record `json:"performance_data,omitempty"`
}

type NewWorkout struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsPublic    *bool                `json:"isPublic"`
	Exercises   []NewWorkoutExercise `json:"exercises"`
}

type NewWorkoutExercise struct {
	ExerciseID      int                `json:"exercise_id"`
	PerformanceData performance.Record `json:"performanceData"`
}

type ProfileUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.IsPublic == nil
}
