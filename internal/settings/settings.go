// Package settings holds the operator-editable detector configuration
// shared between the detection loop, the dispatcher and the API.
package settings

import (
	"sync"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
)

type Settings struct {
	mu          sync.RWMutex
	mode        models.SensitivityMode
	thresholds  models.ThresholdSet
	credentials models.Credentials
}

// New returns settings in Normal mode with the default thresholds.
func New() *Settings {
	return &Settings{
		mode:       models.ModeNormal,
		thresholds: models.DefaultThresholds(),
	}
}

func (s *Settings) Mode() models.SensitivityMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Settings) SetMode(mode models.SensitivityMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Settings) Thresholds() models.ThresholdSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

func (s *Settings) SetThresholds(t models.ThresholdSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
}

// UpdateThresholds applies fn to the current set under the write lock,
// so partial edits from concurrent callers do not overwrite each other.
func (s *Settings) UpdateThresholds(fn func(t *models.ThresholdSet)) models.ThresholdSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.thresholds)
	return s.thresholds
}

// ActiveThreshold returns the mode and its threshold read under one lock.
func (s *Settings) ActiveThreshold() (models.SensitivityMode, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode, s.thresholds.For(s.mode)
}

func (s *Settings) Credentials() models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials
}

func (s *Settings) SetCredentials(c models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = c
}
