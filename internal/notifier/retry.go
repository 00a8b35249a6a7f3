package notifier

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryAfter reads the rate limit delay in seconds from the Retry-After
// header, falling back to the retry_after field Discord puts in the body.
func retryAfter(header http.Header, body []byte) (time.Duration, error) {
	if value := strings.TrimSpace(header.Get("Retry-After")); value != "" {
		return parseSeconds(value)
	}

	var payload struct {
		RetryAfter *float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter != nil {
		return secondsToDuration(*payload.RetryAfter)
	}

	return 0, ErrInvalidRetryAfter
}

func parseSeconds(value string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRetryAfter, value)
	}
	return secondsToDuration(seconds)
}

func secondsToDuration(seconds float64) (time.Duration, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRetryAfter, seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
