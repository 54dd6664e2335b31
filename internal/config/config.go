package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// PipelineConfig carries every tunable of the analytics pipeline. It is
// passed explicitly into each stage so multiple configurations can run in the
// same process without interference.
type PipelineConfig struct {
	WindowMonths     int     `yaml:"window_months" envconfig:"WINDOW_MONTHS" default:"3" validate:"min=1"`
	TopN             int     `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"min=1"`
	MinSamples       int     `yaml:"min_samples" envconfig:"MIN_SAMPLES" default:"10" validate:"min=1"`
	Seed             int64   `yaml:"seed" envconfig:"SEED" default:"42"`
	Trees            int     `yaml:"trees" envconfig:"TREES" default:"200" validate:"min=1"`
	TestFraction     float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION" default:"0.2" validate:"gt=0,lt=1"`
	Mode             string  `yaml:"mode" envconfig:"MODE" default:"regression" validate:"oneof=regression topk linefreq"`
	AmountTolerance  float64 `yaml:"amount_tolerance" envconfig:"AMOUNT_TOLERANCE" default:"0.01" validate:"gt=0"`
	DropAlertPercent float64 `yaml:"drop_alert_percent" envconfig:"DROP_ALERT_PERCENT" default:"30" validate:"gt=0,lte=100"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/retail.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`

	// Input workbook file names, resolved relative to DataDir.
	CustomersFile string `yaml:"customers_file" envconfig:"CUSTOMERS_FILE" default:"customers.xlsx"`
	ProductsFile  string `yaml:"products_file" envconfig:"PRODUCTS_FILE" default:"products.xlsx"`
	SalesFile     string `yaml:"sales_file" envconfig:"SALES_FILE" default:"sales.xlsx"`
	SaleLinesFile string `yaml:"sale_lines_file" envconfig:"SALE_LINES_FILE" default:"sale_lines.xlsx"`
}

// ServerConfig contains report server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// ExportConfig controls the derived artifacts written at the end of a run.
// None of these are authoritative state; regenerating unconditionally
// overwrites prior artifacts.
type ExportConfig struct {
	WriteUnifiedCSV bool   `yaml:"write_unified_csv" envconfig:"WRITE_UNIFIED_CSV" default:"false"`
	SQLitePath      string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" default:""`
	ModelFile       string `yaml:"model_file" envconfig:"MODEL_FILE" default:"model.json"`
}

// Load loads configuration in three layers: struct defaults, then RETAIL_*
// environment variables, then an optional YAML file (RETAIL_CONFIG_FILE or
// ./retail.yaml). The file is the most specific layer and wins; it only
// touches keys it declares.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RETAIL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := os.Getenv("RETAIL_CONFIG_FILE")
	if configFile == "" {
		configFile = "retail.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against the declared constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Default returns a configuration with every default applied and no
// environment or file input. Used by tests and as a fallback when Load fails.
func Default() *Config {
	var cfg Config
	// envconfig fills struct tags' defaults even with no matching variables
	// set; the prefix is deliberately one no deployment uses.
	_ = envconfig.Process("RETAIL_DEFAULTS_ONLY", &cfg)
	return &cfg
}
