package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func probeStatus(t *testing.T, endpoint http.HandlerFunc) (int, probeResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body probeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	s := New()
	s.AddLivenessCheck("goroutines", time.Second, passing())
	s.AddLivenessCheck("gc", time.Second, passing())

	code, body := probeStatus(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	s := New()
	s.AddLivenessCheck("db", time.Second, failing("connection refused"))
	p := s.liveness[0]

	ctx := context.Background()

	// Healthy until the failure threshold is hit.
	p.tick(ctx)
	p.tick(ctx)
	code, _ := probeStatus(t, s.LiveEndpoint)
	require.Equal(t, http.StatusOK, code)

	p.tick(ctx)
	code, body := probeStatus(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestProbe_RecoversAfterSuccess(t *testing.T) {
	healthy := false
	s := New()
	s.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})
	s.SetReady(true)
	p := s.readiness[0]

	ctx := context.Background()
	for i := 0; i < defaultFailureThreshold; i++ {
		p.tick(ctx)
	}
	require.False(t, s.IsReady())

	healthy = true
	p.tick(ctx)
	assert.True(t, s.IsReady())
}

func TestReadyEndpoint_ManualGate(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, passing())

	code, body := probeStatus(t, s.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "_readiness")

	s.SetReady(true)
	code, _ = probeStatus(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)

	// Draining closes the gate again.
	s.SetReady(false)
	code, _ = probeStatus(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStartAndStop(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 1)
	s.AddLivenessCheck("once", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start(context.Background(), 50*time.Millisecond)
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
