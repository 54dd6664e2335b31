package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// InputPaths resolves the four workbook paths relative to the data directory.
// Keys follow the table names used throughout the pipeline.
func (c *Config) InputPaths() map[string]string {
	return map[string]string{
		"customers":  filepath.Join(c.Paths.DataDir, c.Paths.CustomersFile),
		"products":   filepath.Join(c.Paths.DataDir, c.Paths.ProductsFile),
		"sales":      filepath.Join(c.Paths.DataDir, c.Paths.SalesFile),
		"sale_lines": filepath.Join(c.Paths.DataDir, c.Paths.SaleLinesFile),
	}
}

// ReportPath resolves an artifact file name inside the reports directory.
func (c *Config) ReportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.ReportsDir, name)
}

// EnsureDirectories creates the output directories if they do not exist.
// Input directories are deliberately not created: an absent data directory
// means absent inputs and must surface as a missing-input failure, not as an
// empty run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ReportsDir, filepath.Dir(c.Logging.FilePath)} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
