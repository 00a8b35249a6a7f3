package notifier

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		body     string
		expected time.Duration
		wantErr  bool
	}{
		{name: "integer seconds", header: "2", expected: 2 * time.Second},
		{name: "fractional seconds", header: "0.25", expected: 250 * time.Millisecond},
		{name: "zero", header: "0", expected: 0},
		{name: "header wins over body", header: "3", body: `{"retry_after": 9}`, expected: 3 * time.Second},
		{name: "body fallback", body: `{"retry_after": 1.5}`, expected: 1500 * time.Millisecond},
		{name: "negative", header: "-1", wantErr: true},
		{name: "http date", header: "Wed, 21 Oct 2015 07:28:00 GMT", wantErr: true},
		{name: "nothing", body: `{"message":"rate limited"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Retry-After", tt.header)
			}

			delay, err := retryAfter(header, []byte(tt.body))

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRetryAfter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, delay)
		})
	}
}

func TestMessageText(t *testing.T) {
	assert.Equal(t, "Detected sound with decibel level: -33.33 dB", MessageText(-33.333))
}

func TestRemoteError(t *testing.T) {
	err := &RemoteError{Phase: phaseOpenChannel, StatusCode: 401}

	assert.Equal(t, "create DM channel failed, status code: 401", err.Error())
	assert.ErrorIs(t, err, ErrRemoteRejected)
}
