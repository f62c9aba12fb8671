package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histop/internal/engine/history"
)

func TestHealthState(t *testing.T) {
	h := newHealthState("/tmp/hist")
	assert.Equal(t, "starting", h.Check().Status)

	h.record(snapshot{
		source: "/tmp/hist",
		result: history.Result{Counts: history.Counts{"git": 2, "ls": 1}, Dialect: history.DialectShell, Lines: 3},
	}, nil)
	status := h.Check()
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "shell", status.Dialect)
	assert.Equal(t, 3, status.Lines)
	assert.Equal(t, 2, status.Commands)
	assert.False(t, status.LastIngest.IsZero())

	h.record(snapshot{}, errors.New("file vanished"))
	status = h.Check()
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "file vanished", status.LastError)
	assert.Equal(t, 3, status.Lines)
}

func TestObservabilityServer(t *testing.T) {
	h := newHealthState("/tmp/hist")
	srv := NewObservabilityServer("127.0.0.1:0", h)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop(context.Background())

	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	h.record(snapshot{source: "/tmp/hist", result: history.Result{Counts: history.Counts{"git": 1}, Lines: 1}}, nil)
	resp, err = http.Get(base + "/health")
	require.NoError(t, err)
	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, 1, status.Commands)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "histop_undecodable_lines_total")
}

func TestObservabilityServer_BindError(t *testing.T) {
	srv := NewObservabilityServer("127.0.0.1:0", newHealthState(""))
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop(context.Background())

	clash := NewObservabilityServer(srv.Addr(), newHealthState(""))
	assert.Error(t, clash.Start(context.Background()))
}
