package models

import (
	"fmt"
	"strings"
)

// SensitivityMode selects which threshold applies to a reading.
type SensitivityMode string

const (
	ModeSensitive SensitivityMode = "sensitive"
	ModeNormal    SensitivityMode = "normal"
	ModeSleeping  SensitivityMode = "sleeping"
)

// Modes lists every sensitivity mode in display order.
var Modes = []SensitivityMode{ModeSensitive, ModeNormal, ModeSleeping}

// ParseSensitivityMode accepts a mode name in any case.
func ParseSensitivityMode(s string) (SensitivityMode, error) {
	mode := SensitivityMode(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Modes {
		if mode == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sensitivity mode %q", s)
}

// ThresholdSet holds one decibel cutoff per mode. No ordering between
// the modes is enforced.
type ThresholdSet struct {
	Sensitive float64 `json:"sensitive"`
	Normal    float64 `json:"normal"`
	Sleeping  float64 `json:"sleeping"`
}

// DefaultThresholds are the cutoffs used when nothing is configured.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		Sensitive: -60.0,
		Normal:    -40.0,
		Sleeping:  -20.0,
	}
}

// For returns the threshold configured for mode.
func (t ThresholdSet) For(mode SensitivityMode) float64 {
	switch mode {
	case ModeSensitive:
		return t.Sensitive
	case ModeSleeping:
		return t.Sleeping
	default:
		return t.Normal
	}
}
