package source

import (
	"math"
	"testing"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected float64
		hasTime  bool
		wantErr  bool
	}{
		{name: "bare float", payload: "-32.5", expected: -32.5},
		{name: "bare float with whitespace", payload: " -7\n", expected: -7},
		{name: "json", payload: `{"decibels": -12.25}`, expected: -12.25},
		{name: "json with timestamp", payload: `{"decibels": -1, "timestamp": 1700000000000}`, expected: -1, hasTime: true},
		{name: "json missing field", payload: `{"db": -1}`, wantErr: true},
		{name: "garbage", payload: "loud", wantErr: true},
		{name: "empty", payload: "", wantErr: true},
		{name: "NaN", payload: "NaN", wantErr: true},
		{name: "positive infinity", payload: "+Inf", wantErr: true},
		{name: "infinity", payload: "Inf", wantErr: true},
		{name: "negative infinity", payload: "-Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, at, err := parseReading([]byte(tt.payload))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
			assert.Equal(t, tt.hasTime, !at.IsZero())
		})
	}
}

func TestNatsSource_NoReadingIsNoSignal(t *testing.T) {
	s := NewNatsSource("nats://localhost:4222", "audio.levels", 10*time.Second)

	assert.True(t, IsNoSignal(s.CurrentLevel()))
}

func TestNatsSource_KeepsLatestReading(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewNatsSource("nats://localhost:4222", "audio.levels", 10*time.Second)
	s.now = func() time.Time { return now }

	s.record([]byte("-50"))
	now = now.Add(time.Second)
	s.record([]byte(`{"decibels": -30}`))
	s.record([]byte("not a number"))

	assert.Equal(t, -30.0, s.CurrentLevel())
}

func TestNatsSource_IgnoresNonFiniteReadings(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewNatsSource("nats://localhost:4222", "audio.levels", 10*time.Second)
	s.now = func() time.Time { return now }

	s.record([]byte("NaN"))
	assert.Equal(t, NoSignal, s.CurrentLevel())

	s.record([]byte("-35"))
	s.record([]byte("+Inf"))
	assert.Equal(t, -35.0, s.CurrentLevel())
}

func TestIsNoSignal(t *testing.T) {
	tests := []struct {
		name     string
		level    float64
		expected bool
	}{
		{name: "sentinel", level: NoSignal, expected: true},
		{name: "below sentinel", level: -1200, expected: true},
		{name: "NaN", level: math.NaN(), expected: true},
		{name: "positive infinity", level: math.Inf(1), expected: true},
		{name: "negative infinity", level: math.Inf(-1), expected: true},
		{name: "quiet room", level: -60, expected: false},
		{name: "loud", level: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNoSignal(tt.level))
		})
	}
}

func TestNatsSource_IgnoresOutOfOrderReadings(t *testing.T) {
	now := time.UnixMilli(5000)
	s := NewNatsSource("nats://localhost:4222", "audio.levels", time.Minute)
	s.now = func() time.Time { return now }

	s.record([]byte(`{"decibels": -10, "timestamp": 4000}`))
	s.record([]byte(`{"decibels": -90, "timestamp": 3000}`))

	assert.Equal(t, -10.0, s.CurrentLevel())
}

func TestNatsSource_StaleReadingIsNoSignal(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewNatsSource("nats://localhost:4222", "audio.levels", 5*time.Second)
	s.now = func() time.Time { return now }

	s.record([]byte("-20"))
	now = now.Add(6 * time.Second)

	assert.Equal(t, NoSignal, s.CurrentLevel())
}

func TestNatsSource_StartFailsWhenUnreachable(t *testing.T) {
	s := NewNatsSource("nats://127.0.0.1:1", "audio.levels", time.Second)

	err := s.Start()

	assert.Error(t, err)
	assert.ErrorIs(t, s.Stop(), ErrNotStarted)
}

func TestRedisSource_LevelFrom(t *testing.T) {
	now := time.UnixMilli(100_000)
	s := NewRedisSource(RedisOptions{Key: "audio:level", StaleAfter: 10 * time.Second})
	s.now = func() time.Time { return now }

	assert.Equal(t, -44.0, s.levelFrom([]byte("-44")))
	assert.Equal(t, -3.0, s.levelFrom([]byte(`{"decibels": -3, "timestamp": 95000}`)))
	assert.Equal(t, NoSignal, s.levelFrom([]byte(`{"decibels": -3, "timestamp": 50000}`)))
	assert.Equal(t, NoSignal, s.levelFrom([]byte("quiet")))
}

func TestRedisSource_BareValueGoesStaleWhenUnchanged(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewRedisSource(RedisOptions{Key: "audio:level", StaleAfter: 10 * time.Second})
	s.now = func() time.Time { return now }

	assert.Equal(t, -5.0, s.levelFrom([]byte("-5")))

	now = now.Add(9 * time.Second)
	assert.Equal(t, -5.0, s.levelFrom([]byte("-5")))

	// The capture process stopped writing; the last loud value must not
	// keep detecting.
	now = now.Add(24 * time.Hour)
	assert.Equal(t, NoSignal, s.levelFrom([]byte("-5")))

	// A new value is fresh again.
	assert.Equal(t, -6.0, s.levelFrom([]byte("-6")))
}

func TestRedisSource_BareValueNeverStaleWithoutLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewRedisSource(RedisOptions{Key: "audio:level"})
	s.now = func() time.Time { return now }

	s.levelFrom([]byte("-5"))
	now = now.Add(24 * time.Hour)

	assert.Equal(t, -5.0, s.levelFrom([]byte("-5")))
}

func TestRedisSource_NotStarted(t *testing.T) {
	s := NewRedisSource(RedisOptions{Addr: "127.0.0.1:1", Key: "audio:level"})

	assert.Equal(t, NoSignal, s.CurrentLevel())
	assert.ErrorIs(t, s.Stop(), ErrNotStarted)
}

func TestRedisSource_StartFailsWhenUnreachable(t *testing.T) {
	s := NewRedisSource(RedisOptions{Addr: "127.0.0.1:1", Key: "audio:level", Timeout: 500 * time.Millisecond})

	err := s.Start()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		kind     string
		expected string
		wantErr  error
	}{
		{kind: "nats", expected: "nats"},
		{kind: "redis", expected: "redis"},
		{kind: "microphone", wantErr: ErrUnsupportedSource},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			src, err := NewSource(&config.Config{SignalSource: tt.kind})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, src.Name())
		})
	}
}
