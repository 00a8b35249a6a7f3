// Package detector runs the sampling loop that compares sound levels
// against the active threshold.
//
// Lifecycle:
//  1. Enable() - acquires the signal source and starts the ticker
//  2. tick() - runs every interval while enabled
//  3. Disable() - stops the ticker and releases the signal source
//
// Detection events are handed to the Notifier without waiting for delivery,
// so a slow or rate-limited dispatch never delays the next tick.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/settings"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/source"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/status"
)

// DefaultSampleInterval is the fixed period between samples.
const DefaultSampleInterval = 3 * time.Second

// ErrAcquisition wraps failures to start the signal source.
var ErrAcquisition = errors.New("detector: signal source acquisition failed")

// Notifier receives detection events. Notify must not block.
type Notifier interface {
	Notify(event models.DetectionEvent)
}

type Loop struct {
	source   source.SignalSource
	settings *settings.Settings
	reporter *status.Reporter
	notifier Notifier
	interval time.Duration

	mu        sync.Mutex
	enabled   bool
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []func(enabled bool)
}

// NewLoop creates a disabled loop. A non-positive interval falls back to
// DefaultSampleInterval.
func NewLoop(src source.SignalSource, s *settings.Settings, r *status.Reporter, n Notifier, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Loop{
		source:   src,
		settings: s,
		reporter: r,
		notifier: n,
		interval: interval,
	}
}

func (l *Loop) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *Loop) Interval() time.Duration {
	return l.interval
}

// OnStateChange registers fn to run after every enable or disable
// transition. fn runs with the loop locked and must not call back into it.
func (l *Loop) OnStateChange(fn func(enabled bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Loop) notifyState() {
	for _, fn := range l.listeners {
		fn(l.enabled)
	}
}

// Enable starts sampling. Calling it while enabled does nothing. If the
// signal source cannot start, the failure is reported on the status and
// the loop stays disabled.
func (l *Loop) Enable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enabled {
		return nil
	}

	if err := l.source.Start(); err != nil {
		log.Printf("Error setting up signal source (%s): %v", l.source.Name(), err)
		l.reporter.Set(models.SetupFailedStatus(err))
		return fmt.Errorf("%w: %v", ErrAcquisition, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.enabled = true

	go l.run(ctx, l.done)
	l.notifyState()

	log.Printf("Sound detection enabled (source: %s, interval: %s)", l.source.Name(), l.interval)
	return nil
}

// Disable stops sampling and releases the signal source. In-flight
// notifications are not cancelled. Calling it while disabled does nothing.
func (l *Loop) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	l.cancel()
	<-l.done

	if err := l.source.Stop(); err != nil {
		log.Printf("Error releasing signal source (%s): %v", l.source.Name(), err)
	}

	l.enabled = false
	l.cancel = nil
	l.done = nil

	l.reporter.Set(models.DisabledStatus())
	l.notifyState()
	log.Printf("Sound detection disabled")
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick takes one sample and updates the status. It returns the event it
// raised, if any.
func (l *Loop) tick() *models.DetectionEvent {
	level := l.source.CurrentLevel()
	mode, threshold := l.settings.ActiveThreshold()

	// Written as !(level > threshold) so a NaN threshold never detects.
	if source.IsNoSignal(level) || !(level > threshold) {
		l.reporter.Set(models.NoDetectionStatus())
		return nil
	}

	event := models.NewDetectionEvent(level, threshold, mode)
	log.Printf("Sound detected: %s dB (mode: %s, threshold: %s dB)",
		models.FormatDecibels(level), mode, models.FormatDecibels(threshold))

	l.reporter.Set(models.DetectedStatus(level))
	l.notifier.Notify(event)

	return &event
}
