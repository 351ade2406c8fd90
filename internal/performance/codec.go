package performance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/errs"
)

var jsonNull = []byte("null")

type storedRecord struct {
	Sets *[]json.RawMessage `json:"sets"`
}

// Decode parses a stored performance document. An absent document (nil, empty or
// JSON null) yields a nil list and no error; callers decide what absence means.
func Decode(blob []byte) ([]Set, error) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 || bytes.Equal(blob, jsonNull) {
		return nil, nil
	}

	var rec storedRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedRecord, err)
	}
	if rec.Sets == nil {
		return nil, fmt.Errorf("%w: missing sets", errs.ErrMalformedRecord)
	}

	sets := make([]Set, 0, len(*rec.Sets))
	for i, raw := range *rec.Sets {
		s, err := decodeSet(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", errs.ErrMalformedRecord, i, err)
		}
		sets = append(sets, s)
	}

	return sets, nil
}

func decodeSet(raw json.RawMessage) (Set, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Set{}, err
	}
	if fields == nil {
		return Set{}, fmt.Errorf("entry is null")
	}

	setNumber, err := intField(fields, "set")
	if err != nil {
		return Set{}, err
	}
	reps, err := intField(fields, "reps")
	if err != nil {
		return Set{}, err
	}
	weight, err := numberField(fields, "weight")
	if err != nil {
		return Set{}, err
	}

	return Set{Set: setNumber, Reps: reps, Weight: weight}, nil
}

func numberField(fields map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("missing %q", name)
	}
	raw = bytes.TrimSpace(raw)
	// quoted numbers and null are rejected here, strconv would accept neither anyway
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, fmt.Errorf("%q is not a number", name)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", name, err)
	}
	return f, nil
}

func intField(fields map[string]json.RawMessage, name string) (int, error) {
	f, err := numberField(fields, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%q is not an integer: %v", name, f)
	}
	return int(f), nil
}

// Encode serializes a set list into the stored document shape. It does not renumber.
func Encode(sets []Set) ([]byte, error) {
	if sets == nil {
		sets = []Set{}
	}
	return json.Marshal(Record{Sets: sets})
}
