package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Reading is the wire format a capture process publishes. A bare float
// payload is accepted as well.
type Reading struct {
	Decibels  *float64 `json:"decibels"`
	Timestamp int64    `json:"timestamp,omitempty"` // unix milliseconds
}

// parseReading returns the level and, when the payload carries one, its
// capture time.
func parseReading(data []byte) (float64, time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0, time.Time{}, fmt.Errorf("empty reading")
	}

	if data[0] == '{' {
		var r Reading
		if err := json.Unmarshal(data, &r); err != nil {
			return 0, time.Time{}, fmt.Errorf("invalid reading: %w", err)
		}
		if r.Decibels == nil {
			return 0, time.Time{}, fmt.Errorf("reading has no decibels field")
		}
		if !finite(*r.Decibels) {
			return 0, time.Time{}, fmt.Errorf("reading is not a finite level")
		}
		var at time.Time
		if r.Timestamp > 0 {
			at = time.UnixMilli(r.Timestamp)
		}
		return *r.Decibels, at, nil
	}

	level, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid reading: %w", err)
	}
	if !finite(level) {
		return 0, time.Time{}, fmt.Errorf("reading is not a finite level: %q", data)
	}
	return level, time.Time{}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
