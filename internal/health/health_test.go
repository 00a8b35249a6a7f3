package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubDetector struct {
	enabled bool
	status  models.StatusMessage
}

func (s stubDetector) Enabled() bool { return s.enabled }

func (s stubDetector) SourceName() string { return "nats" }

func (s stubDetector) CurrentStatus() models.StatusMessage { return s.status }

func TestHealthHandler(t *testing.T) {
	srv := NewServer(stubDetector{enabled: true, status: models.NoDetectionStatus()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "sounddetector", resp.Service)
	assert.True(t, resp.Detection.Enabled)
	assert.Equal(t, "nats", resp.Detection.Source)
	assert.Equal(t, models.StatusNoDetection, resp.Detection.Status.Kind)
	assert.NotNil(t, resp.System)
}

func checkDetection(t *testing.T, g *GRPCServer) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := g.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: DetectionService})
	require.NoError(t, err)
	return resp.Status
}

func TestGRPCServer_TracksDetectionStatus(t *testing.T) {
	g := NewGRPCServer()
	observe := g.StatusObserver()

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkDetection(t, g))

	observe(models.NoDetectionStatus())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkDetection(t, g))

	observe(models.DisabledStatus())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkDetection(t, g))

	// A late delivery result does not flip the state back.
	observe(models.DeliveredStatus(-3))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkDetection(t, g))

	observe(models.DetectedStatus(-3))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkDetection(t, g))

	observe(models.SetupFailedStatus(errors.New("busy")))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkDetection(t, g))
}

func TestGRPCServer_ServingFromEnableTransition(t *testing.T) {
	g := NewGRPCServer()

	g.SetDetectionServing(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkDetection(t, g))

	g.SetDetectionServing(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkDetection(t, g))
}

func TestGRPCServer_ProcessHealth(t *testing.T) {
	g := NewGRPCServer()

	resp, err := g.health.Check(context.Background(), &healthpb.HealthCheckRequest{})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
