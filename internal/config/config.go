package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salesintel/internal/analytics"
	"salesintel/pkg/contracts/domain"
)

// Config represents the complete application configuration.
//
// Values come from Default, then an optional YAML file, then SALESINTEL_*
// environment variables; later sources win field by field.
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Upload        UploadConfig        `yaml:"upload" envconfig:"UPLOAD"`
	Analytics     AnalyticsConfig     `yaml:"analytics" envconfig:"ANALYTICS"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// ReportTimeout bounds one report request end to end.
	ReportTimeout time.Duration `yaml:"report_timeout" envconfig:"REPORT_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths used by the batch CLI and the log
// file.
type PathsConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// UploadConfig limits report uploads.
type UploadConfig struct {
	// MaxBytes caps the whole multipart request body.
	MaxBytes int64 `yaml:"max_bytes" envconfig:"MAX_BYTES" validate:"gt=0"`
	// MaxMemory is the part of a multipart form kept in memory; the rest
	// spills to temporary files.
	MaxMemory int64 `yaml:"max_memory" envconfig:"MAX_MEMORY" validate:"gt=0"`
}

// FXConfig holds SEK exchange rates. SEK itself is always 1.
type FXConfig struct {
	EUR float64 `yaml:"eur" envconfig:"EUR" validate:"gt=0"`
	USD float64 `yaml:"usd" envconfig:"USD" validate:"gt=0"`
	GBP float64 `yaml:"gbp" envconfig:"GBP" validate:"gt=0"`
}

// MaterialConfig holds the thresholds of the material cohort filter.
type MaterialConfig struct {
	Change          float64 `yaml:"change" envconfig:"CHANGE" validate:"gte=0"`
	ChurnedPrevious float64 `yaml:"churned_previous" envconfig:"CHURNED_PREVIOUS" validate:"gte=0"`
	NewCurrent      float64 `yaml:"new_current" envconfig:"NEW_CURRENT" validate:"gte=0"`
}

// AnalyticsConfig holds the thresholds used by report analytics.
type AnalyticsConfig struct {
	FX                  FXConfig       `yaml:"fx" envconfig:"FX"`
	AgingDays           int            `yaml:"aging_days" envconfig:"AGING_DAYS" validate:"gte=1"`
	LargeOrderThreshold float64        `yaml:"large_order_threshold" envconfig:"LARGE_ORDER_THRESHOLD" validate:"gt=0"`
	ConcentrationAlert  float64        `yaml:"concentration_alert" envconfig:"CONCENTRATION_ALERT" validate:"gte=0,lte=100"`
	Material            MaterialConfig `yaml:"material" envconfig:"MATERIAL"`
	// MatchHeaders lets header text in row 1 override default column
	// positions in exports.
	MatchHeaders bool `yaml:"match_headers" envconfig:"MATCH_HEADERS"`
}

// ObservabilityConfig controls metrics and tracing.
type ObservabilityConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// EnvPrefix namespaces every environment variable, e.g.
// SALESINTEL_ANALYTICS_FX_EUR.
const EnvPrefix = "SALESINTEL"

// Load builds the configuration from defaults, the first config file found
// in the usual locations and the environment.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags: fields without an environment variable keep the
	// value from Default or the file.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate checks struct tags and normalises logging settings.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	// Logs are always JSON.
	c.Logging.Format = "json"
	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// FXTable returns the configured rates keyed by currency.
func (a AnalyticsConfig) FXTable() map[domain.Currency]float64 {
	return map[domain.Currency]float64{
		domain.SEK: 1,
		domain.EUR: a.FX.EUR,
		domain.USD: a.FX.USD,
		domain.GBP: a.FX.GBP,
	}
}

// MaterialThresholds converts the material filter settings.
func (a AnalyticsConfig) MaterialThresholds() analytics.MaterialThresholds {
	return analytics.MaterialThresholds{
		Change:          a.Material.Change,
		ChurnedPrevious: a.Material.ChurnedPrevious,
		NewCurrent:      a.Material.NewCurrent,
	}
}

// AlertLimits converts the order book alert settings.
func (a AnalyticsConfig) AlertLimits() analytics.AlertLimits {
	return analytics.AlertLimits{
		AgingDays:          a.AgingDays,
		LargeOrder:         a.LargeOrderThreshold,
		ConcentrationAlert: a.ConcentrationAlert,
	}
}

// EnsureDirectories creates the output and log directories.
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	material := analytics.DefaultMaterialThresholds()
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			ReportTimeout:   DefaultReportTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "both",
			FilePath: filepath.Join(DefaultLogsDir, "app.log"),
		},
		Paths: PathsConfig{
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Upload: UploadConfig{
			MaxBytes:  DefaultMaxUploadBytes,
			MaxMemory: DefaultMaxUploadMemory,
		},
		Analytics: AnalyticsConfig{
			FX: FXConfig{
				EUR: DefaultEURRate,
				USD: DefaultUSDRate,
				GBP: DefaultGBPRate,
			},
			AgingDays:           analytics.DefaultAgingDays,
			LargeOrderThreshold: analytics.DefaultLargeOrderThreshold,
			ConcentrationAlert:  analytics.DefaultConcentrationAlert,
			Material: MaterialConfig{
				Change:          material.Change,
				ChurnedPrevious: material.ChurnedPrevious,
				NewCurrent:      material.NewCurrent,
			},
		},
		Observability: ObservabilityConfig{
			ServiceName:   AppName,
			Environment:   "development",
			EnableMetrics: true,
			EnableTracing: false,
			TraceExporter: "stdout",
			SampleRatio:   1.0,
		},
	}
}
