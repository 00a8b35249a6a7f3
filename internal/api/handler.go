// Package api serves the operator HTTP surface: settings, detection
// control, current status and the websocket status stream.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/detector"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/settings"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/status"
)

// Detector is the part of the detection loop the API controls.
type Detector interface {
	Enabled() bool
	Enable() error
	Disable()
	Interval() time.Duration
}

type Handler struct {
	settings *settings.Settings
	reporter *status.Reporter
	detector Detector
}

func NewHandler(s *settings.Settings, r *status.Reporter, d Detector) *Handler {
	return &Handler{
		settings: s,
		reporter: r,
		detector: d,
	}
}

type SettingsResponse struct {
	Mode       models.SensitivityMode `json:"mode"`
	Threshold  float64                `json:"active_threshold"`
	Thresholds models.ThresholdSet    `json:"thresholds"`
	UserID     string                 `json:"user_id"`
	TokenSet   bool                   `json:"token_set"`
}

type DetectionResponse struct {
	Enabled         bool    `json:"enabled"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// thresholdsRequest leaves modes that are absent from the body untouched.
type thresholdsRequest struct {
	Sensitive *float64 `json:"sensitive"`
	Normal    *float64 `json:"normal"`
	Sleeping  *float64 `json:"sleeping"`
}

type credentialsRequest struct {
	BotToken string `json:"bot_token"`
	UserID   string `json:"user_id"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.reporter.Current())
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.settingsResponse())
}

func (h *Handler) settingsResponse() SettingsResponse {
	mode, threshold := h.settings.ActiveThreshold()
	creds := h.settings.Credentials()
	return SettingsResponse{
		Mode:       mode,
		Threshold:  threshold,
		Thresholds: h.settings.Thresholds(),
		UserID:     creds.UserID,
		TokenSet:   creds.BotToken != "",
	}
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := models.ParseSensitivityMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.settings.SetMode(mode)
	writeJSON(w, h.settingsResponse())
}

func (h *Handler) SetThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sensitive == nil && req.Normal == nil && req.Sleeping == nil {
		writeError(w, http.StatusBadRequest, "no thresholds given")
		return
	}
	for _, v := range []*float64{req.Sensitive, req.Normal, req.Sleeping} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			writeError(w, http.StatusBadRequest, "thresholds must be finite")
			return
		}
	}

	h.settings.UpdateThresholds(func(t *models.ThresholdSet) {
		if req.Sensitive != nil {
			t.Sensitive = *req.Sensitive
		}
		if req.Normal != nil {
			t.Normal = *req.Normal
		}
		if req.Sleeping != nil {
			t.Sleeping = *req.Sleeping
		}
	})
	writeJSON(w, h.settingsResponse())
}

func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.settings.SetCredentials(models.Credentials{
		BotToken: strings.TrimSpace(req.BotToken),
		UserID:   strings.TrimSpace(req.UserID),
	})
	writeJSON(w, h.settingsResponse())
}

func (h *Handler) GetDetection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.detectionResponse())
}

func (h *Handler) EnableDetection(w http.ResponseWriter, r *http.Request) {
	if err := h.detector.Enable(); err != nil {
		if errors.Is(err, detector.ErrAcquisition) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, h.detectionResponse())
}

func (h *Handler) DisableDetection(w http.ResponseWriter, r *http.Request) {
	h.detector.Disable()
	writeJSON(w, h.detectionResponse())
}

func (h *Handler) detectionResponse() DetectionResponse {
	return DetectionResponse{
		Enabled:         h.detector.Enabled(),
		IntervalSeconds: h.detector.Interval().Seconds(),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
