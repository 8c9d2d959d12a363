package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// Days is a days-of-supply value. NoDepletion marks stock that is not being sold down.
type Days float64

// NoDepletion is the days-of-supply sentinel for records with no sell-through.
var NoDepletion = Days(math.Inf(1))

// IsInfinite reports whether d is the NoDepletion sentinel.
func (d Days) IsInfinite() bool {
	return math.IsInf(float64(d), 1)
}

// MarshalJSON renders the sentinel as null since JSON has no infinity.
func (d Days) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON maps null back to NoDepletion.
func (d *Days) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = NoDepletion
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*d = Days(f)
	return nil
}
