package models

import (
	"fmt"
	"time"
)

// StatusKind classifies a status message for machine consumers.
type StatusKind string

const (
	StatusIdle           StatusKind = "idle"
	StatusDisabled       StatusKind = "disabled"
	StatusNoDetection    StatusKind = "no_detection"
	StatusDetected       StatusKind = "detected"
	StatusDelivered      StatusKind = "delivered"
	StatusDeliveryFailed StatusKind = "delivery_failed"
	StatusSetupFailed    StatusKind = "setup_failed"
)

// StatusMessage is the latest human-readable outcome shown to the operator.
type StatusMessage struct {
	Kind         StatusKind `json:"kind"`
	Text         string     `json:"text"`
	DecibelLevel *float64   `json:"decibel_level,omitempty"`
	UpdatedAt    int64      `json:"updated_at"`
}

func newStatus(kind StatusKind, text string) StatusMessage {
	return StatusMessage{
		Kind:      kind,
		Text:      text,
		UpdatedAt: time.Now().Unix(),
	}
}

func IdleStatus() StatusMessage {
	return newStatus(StatusIdle, "")
}

func DisabledStatus() StatusMessage {
	return newStatus(StatusDisabled, "Sound detection disabled")
}

func NoDetectionStatus() StatusMessage {
	return newStatus(StatusNoDetection, "No significant sound detected")
}

func DetectedStatus(level float64) StatusMessage {
	s := newStatus(StatusDetected, fmt.Sprintf("Sound detected: %s dB", FormatDecibels(level)))
	s.DecibelLevel = &level
	return s
}

func DeliveredStatus(level float64) StatusMessage {
	s := newStatus(StatusDelivered, "Message sent successfully")
	s.DecibelLevel = &level
	return s
}

func DeliveryFailedStatus(level float64, err error) StatusMessage {
	s := newStatus(StatusDeliveryFailed, fmt.Sprintf("Failed to send message: %v", err))
	s.DecibelLevel = &level
	return s
}

func SetupFailedStatus(err error) StatusMessage {
	return newStatus(StatusSetupFailed, fmt.Sprintf("Error setting up sound detection: %v", err))
}

// FormatDecibels renders a level with two decimals.
func FormatDecibels(level float64) string {
	return fmt.Sprintf("%.2f", level)
}
