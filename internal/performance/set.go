package performance

import "fmt"

// Set is a single logged set of one exercise within a workout.
type Set struct {
	Set    int     `json:"set"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// SetUpdate carries the fields of an update. Nil fields are left untouched.
type SetUpdate struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
}

func (u SetUpdate) Empty() bool {
	return u.Reps == nil && u.Weight == nil
}

// Key identifies one performance record.
type Key struct {
	UserID     int
	WorkoutID  int
	ExerciseID int
}

func (k Key) String() string {
	return fmt.Sprintf("user=%d workout=%d exercise=%d", k.UserID, k.WorkoutID, k.ExerciseID)
}

// Record is the wire/response view of a stored set list.
type Record struct {
	Sets []Set `json:"sets"`
}
