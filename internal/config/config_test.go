package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Pipeline.WindowMonths)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
	assert.Equal(t, 10, cfg.Pipeline.MinSamples)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, 200, cfg.Pipeline.Trees)
	assert.InDelta(t, 0.2, cfg.Pipeline.TestFraction, 1e-9)
	assert.Equal(t, "regression", cfg.Pipeline.Mode)
	assert.InDelta(t, 0.01, cfg.Pipeline.AmountTolerance, 1e-9)
	assert.Equal(t, "customers.xlsx", cfg.Paths.CustomersFile)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RETAIL_PIPELINE_WINDOW_MONTHS", "6")
	t.Setenv("RETAIL_PIPELINE_MODE", "topk")
	t.Setenv("RETAIL_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Pipeline.WindowMonths)
	assert.Equal(t, "topk", cfg.Pipeline.Mode)
	// Untouched values keep their defaults.
	assert.Equal(t, 10, cfg.Pipeline.TopN)
}

func TestLoad_FileOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "retail.yaml")
	content := "pipeline:\n  window_months: 4\n  top_n: 5\npaths:\n  data_dir: /tmp/retail-data\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	t.Setenv("RETAIL_CONFIG_FILE", file)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.WindowMonths)
	assert.Equal(t, 5, cfg.Pipeline.TopN)
	assert.Equal(t, "/tmp/retail-data", cfg.Paths.DataDir)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("RETAIL_PIPELINE_MODE", "quantum")
	t.Setenv("RETAIL_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RejectsZeroWindow(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.WindowMonths = 0

	assert.Error(t, cfg.Validate())
}

func TestInputPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "data"

	paths := cfg.InputPaths()
	assert.Equal(t, filepath.Join("data", "customers.xlsx"), paths["customers"])
	assert.Equal(t, filepath.Join("data", "sale_lines.xlsx"), paths["sale_lines"])
	assert.Len(t, paths, 4)
}

func TestReportPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.ReportsDir = "reports"

	assert.Equal(t, filepath.Join("reports", "ranking_predicted.csv"), cfg.ReportPath("ranking_predicted.csv"))
	assert.Equal(t, "/abs/x.csv", cfg.ReportPath("/abs/x.csv"))
}
