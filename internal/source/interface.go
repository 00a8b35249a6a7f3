// Package source provides the signal sources that feed decibel readings
// to the detection loop.
package source

import (
	"errors"
	"math"
)

// NoSignal is reported when no usable reading exists. It sits far below
// any real threshold.
const NoSignal = -1000.0

// SignalSource supplies the latest decibel reading on demand.
type SignalSource interface {
	// Start acquires the underlying capture feed.
	Start() error
	// CurrentLevel returns the latest reading, or NoSignal.
	CurrentLevel() float64
	// Stop releases the capture feed.
	Stop() error
	Name() string
}

// IsNoSignal reports whether level is the sentinel, below it, or not a
// finite number.
func IsNoSignal(level float64) bool {
	return math.IsNaN(level) || math.IsInf(level, 0) || level <= NoSignal
}

var (
	// NotStarted - CurrentLevel/Stop before Start
	ErrNotStarted = errors.New("source: not started")

	// UnsupportedSource - unknown SIGNAL_SOURCE value
	ErrUnsupportedSource = errors.New("source: unsupported signal source")
)
