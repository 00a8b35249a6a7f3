package models

import (
	"time"

	"github.com/google/uuid"
)

// Credentials authenticate delivery to Discord. They are only checked
// for presence; a bad token surfaces as a rejected request.
type Credentials struct {
	BotToken string
	UserID   string
}

// Complete reports whether both token and recipient are set.
func (c Credentials) Complete() bool {
	return c.BotToken != "" && c.UserID != ""
}

// DetectionEvent is raised when a reading exceeds the active threshold.
type DetectionEvent struct {
	ID           string          `json:"id"`
	DecibelLevel float64         `json:"decibel_level"`
	Threshold    float64         `json:"threshold"`
	Mode         SensitivityMode `json:"mode"`
	Timestamp    int64           `json:"timestamp"`
}

func NewDetectionEvent(level, threshold float64, mode SensitivityMode) DetectionEvent {
	return DetectionEvent{
		ID:           uuid.NewString(),
		DecibelLevel: level,
		Threshold:    threshold,
		Mode:         mode,
		Timestamp:    time.Now().Unix(),
	}
}

// DispatchAttempt tracks one notification flow, including its retries.
type DispatchAttempt struct {
	ID           string
	EventID      string
	DecibelLevel float64
	ChannelID    string
	Retries      int
	StartedAt    time.Time
}

func NewDispatchAttempt(event DetectionEvent) *DispatchAttempt {
	return &DispatchAttempt{
		ID:           uuid.NewString(),
		EventID:      event.ID,
		DecibelLevel: event.DecibelLevel,
		StartedAt:    time.Now(),
	}
}
