package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcli/internal/config"
	"retailcli/internal/exporter"
	"retailcli/pkg/domain"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

func writeArtifact(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestServer_HealthCheck(t *testing.T) {
	srv := NewServer(testServerConfig(), t.TempDir(), nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ServesRankingArtifact(t *testing.T) {
	dir := t.TempDir()
	entries := []domain.RankingEntry{
		{Rank: 1, ProductID: 3, ProductName: "Yerba Mate 1kg", Value: 10},
	}
	writeArtifact(t, dir, exporter.HistoricalRankingName+".json", entries)

	srv := NewServer(testServerConfig(), dir, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rankings/historical")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []domain.RankingEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, entries, got)
}

func TestServer_MissingArtifactIs404(t *testing.T) {
	srv := NewServer(testServerConfig(), t.TempDir(), nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rankings/predicted")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AlertsFromSummary(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, exporter.SummaryFile, Summary{
		Mode: "regression",
		DropAlerts: []DropAlert{
			{ProductID: 1, ProductName: "Yerba Mate 1kg", PeakQuantity: 10, LastQuantity: 2, DropPercent: 80},
		},
	})

	srv := NewServer(testServerConfig(), dir, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/alerts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []DropAlert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, 1, alerts[0].ProductID)
}

func TestServer_AlertsEmptyListNotNull(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, exporter.SummaryFile, Summary{Mode: "regression"})

	srv := NewServer(testServerConfig(), dir, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/alerts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var alerts []DropAlert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alerts))
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := NewServer(testServerConfig(), t.TempDir(), nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Generate one counted request first.
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
