package health

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/system"
)

type HealthResponse struct {
	Status        string          `json:"status"`
	Service       string          `json:"service"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Timestamp     int64           `json:"timestamp"`
	Detection     DetectionHealth `json:"detection"`
	System        *system.Metrics `json:"system,omitempty"`
}

type DetectionHealth struct {
	Enabled bool                 `json:"enabled"`
	Source  string               `json:"source"`
	Status  models.StatusMessage `json:"status"`
}

// DetectorView is the read-only detector state the health check reports.
type DetectorView interface {
	Enabled() bool
	SourceName() string
	CurrentStatus() models.StatusMessage
}

type Server struct {
	detector  DetectorView
	startTime time.Time
	server    *http.Server
}

func NewServer(detector DetectorView) *Server {
	return &Server{
		detector:  detector,
		startTime: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Start serves /health in the background.
func (s *Server) Start(port string) {
	s.server = &http.Server{
		Addr:    ":" + port,
		Handler: s.Handler(),
	}

	log.Printf("Health check listening on : %s", port)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Health server failed: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := &HealthResponse{
		Status:        "healthy",
		Service:       "sounddetector",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Timestamp:     time.Now().Unix(),
		Detection: DetectionHealth{
			Enabled: s.detector.Enabled(),
			Source:  s.detector.SourceName(),
			Status:  s.detector.CurrentStatus(),
		},
		System: system.Collect(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
