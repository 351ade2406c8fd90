package performance

import (
	"fmt"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
)

// The functions below never modify their input slice.

// AddSet appends a set numbered len(sets)+1. An absent list is treated as empty.
func AddSet(sets []Set, reps int, weight float64) []Set {
	out := make([]Set, len(sets), len(sets)+1)
	copy(out, sets)
	return append(out, Set{
		Set:    len(sets) + 1,
		Reps:   reps,
		Weight: weight,
	})
}

// DeleteSet removes the entries numbered setNumber and renumbers the survivors
// 1..k in their storage order.
func DeleteSet(sets []Set, setNumber int) ([]Set, error) {
	if len(sets) == 0 {
		return nil, errs.ErrEmptyList
	}

	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if s.Set == setNumber {
			continue
		}
		out = append(out, s)
	}
	if len(out) == len(sets) {
		return nil, fmt.Errorf("%w: set %d", errs.ErrSetNotFound, setNumber)
	}

	return Renumber(out), nil
}

// UpdateSet replaces reps and/or weight of the entries numbered setNumber.
func UpdateSet(sets []Set, setNumber int, update SetUpdate) ([]Set, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: reps or weight required", errs.ErrNoFields)
	}
	if len(sets) == 0 {
		return nil, errs.ErrEmptyList
	}

	out := make([]Set, len(sets))
	copy(out, sets)

	found := false
	for i := range out {
		if out[i].Set != setNumber {
			continue
		}
		found = true
		if update.Reps != nil {
			out[i].Reps = *update.Reps
		}
		if update.Weight != nil {
			out[i].Weight = *update.Weight
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: set %d", errs.ErrSetNotFound, setNumber)
	}

	return out, nil
}

// Renumber returns a copy numbered 1..n in storage order.
func Renumber(sets []Set) []Set {
	out := make([]Set, len(sets))
	for i, s := range sets {
		s.Set = i + 1
		out[i] = s
	}
	return out
}
