package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Precedence, lowest
// to highest: built-in defaults, optional YAML config file, TRIPFLOW_*
// environment variables.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Cleaning CleaningConfig `yaml:"cleaning" envconfig:"CLEANING"`
	Pricing  PricingConfig  `yaml:"pricing" envconfig:"PRICING"`
}

// LoggingConfig controls the slog handler setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig names the data directories the batch tools work against.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// CleaningConfig holds the cleaning bounds. Defaults are the Chicago
// service-area bounding box and the 1 minute to 24 hour trip window.
type CleaningConfig struct {
	LatMin      float64 `yaml:"lat_min" envconfig:"LAT_MIN" validate:"ltfield=LatMax"`
	LatMax      float64 `yaml:"lat_max" envconfig:"LAT_MAX"`
	LngMin      float64 `yaml:"lng_min" envconfig:"LNG_MIN" validate:"ltfield=LngMax"`
	LngMax      float64 `yaml:"lng_max" envconfig:"LNG_MAX"`
	DurationMin float64 `yaml:"duration_min" envconfig:"DURATION_MIN" validate:"gt=0,ltfield=DurationMax"`
	DurationMax float64 `yaml:"duration_max" envconfig:"DURATION_MAX"`
}

// PricingConfig holds the unit-economics assumptions. These are stated
// modeling assumptions, not fitted parameters; the subscriber capture
// rate in particular is a heuristic and deliberately configurable.
type PricingConfig struct {
	MonthlySubscriptionFee  float64 `yaml:"monthly_subscription_fee" envconfig:"MONTHLY_SUBSCRIPTION_FEE" validate:"gte=0"`
	SubscriberCaptureRate   float64 `yaml:"subscriber_capture_rate" envconfig:"SUBSCRIBER_CAPTURE_RATE" validate:"gte=0,lte=1"`
	CustomerLifetimeMonths  float64 `yaml:"customer_lifetime_months" envconfig:"CUSTOMER_LIFETIME_MONTHS" validate:"gt=0"`
	CustomerAcquisitionCost float64 `yaml:"customer_acquisition_cost" envconfig:"CUSTOMER_ACQUISITION_COST" validate:"gt=0"`
	GrossMargin             float64 `yaml:"gross_margin" envconfig:"GROSS_MARGIN" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/tripflow.log",
		},
		Paths: PathsConfig{
			RawDir:       "data/raw",
			ProcessedDir: "data/processed",
			ReportsDir:   "data/reports",
		},
		Cleaning: CleaningConfig{
			LatMin:      41.5,
			LatMax:      42.5,
			LngMin:      -88.0,
			LngMax:      -87.0,
			DurationMin: 1,
			DurationMax: 1440,
		},
		Pricing: PricingConfig{
			MonthlySubscriptionFee:  15.0,
			SubscriberCaptureRate:   0.6,
			CustomerLifetimeMonths:  40,
			CustomerAcquisitionCost: 40.0,
			GrossMargin:             0.96,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error; env vars and defaults still apply.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Only variables actually set in the environment override the file.
	if err := envconfig.Process("TRIPFLOW", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("TRIPFLOW_CONFIG"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml")
}
