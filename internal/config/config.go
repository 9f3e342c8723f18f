package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix shared by every environment variable the service reads.
const EnvPrefix = "CLIENTPULSE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"55s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/clientpulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// AnalysisConfig tunes the report pipeline.
type AnalysisConfig struct {
	Seed                uint64  `yaml:"seed" envconfig:"SEED" default:"42"`
	Clusters            int     `yaml:"clusters" envconfig:"CLUSTERS" default:"3" validate:"eq=3"`
	Restarts            int     `yaml:"restarts" envconfig:"RESTARTS" default:"10" validate:"min=1"`
	MaxIterations       int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" default:"300" validate:"min=1"`
	HighValueThreshold  float64 `yaml:"high_value_threshold" envconfig:"HIGH_VALUE_THRESHOLD" default:"60000"`
	HighValueDisplayCap int     `yaml:"high_value_display_cap" envconfig:"HIGH_VALUE_DISPLAY_CAP" default:"10" validate:"min=1"`
	CLVPercentile       float64 `yaml:"clv_percentile" envconfig:"CLV_PERCENTILE" default:"0.75" validate:"gt=0,lt=1"`
	CLVDedupe           string  `yaml:"clv_dedupe" envconfig:"CLV_DEDUPE" default:"customer" validate:"oneof=customer pair"`
	HistogramBins       int     `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" default:"30" validate:"min=1"`
	MaxConcurrent       int64   `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT" default:"4" validate:"min=1"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"clientpulse"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" default:"1.0"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, envOverrides())
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envOverrides reports which variables were explicitly set, so that a
// default filled in by envconfig does not shadow a value from the file.
func envOverrides() map[string]bool {
	keys := []string{
		"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_MAX_UPLOAD_BYTES",
		"LOGGING_LEVEL", "LOGGING_OUTPUT", "LOGGING_FILE_PATH",
		"ANALYSIS_SEED", "ANALYSIS_CLUSTERS", "ANALYSIS_RESTARTS", "ANALYSIS_MAX_ITERATIONS",
		"ANALYSIS_HIGH_VALUE_THRESHOLD", "ANALYSIS_HIGH_VALUE_DISPLAY_CAP",
		"ANALYSIS_CLV_PERCENTILE", "ANALYSIS_CLV_DEDUPE", "ANALYSIS_HISTOGRAM_BINS", "ANALYSIS_MAX_CONCURRENT",
		"SECURITY_ALLOWED_ORIGINS", "TELEMETRY_TRACE_EXPORTER",
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := os.LookupEnv(EnvPrefix + "_" + k); ok {
			set[k] = true
		}
	}
	return set
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config, explicit map[string]bool) Config {
	pick := func(key string, fileSet bool, apply func()) {
		if !explicit[key] && fileSet {
			apply()
		}
	}

	f := fileConfig
	pick("SERVER_PORT", f.Server.Port != 0, func() { envConfig.Server.Port = f.Server.Port })
	pick("SERVER_READ_TIMEOUT", f.Server.ReadTimeout != 0, func() { envConfig.Server.ReadTimeout = f.Server.ReadTimeout })
	pick("SERVER_WRITE_TIMEOUT", f.Server.WriteTimeout != 0, func() { envConfig.Server.WriteTimeout = f.Server.WriteTimeout })
	pick("SERVER_MAX_UPLOAD_BYTES", f.Server.MaxUploadBytes != 0, func() { envConfig.Server.MaxUploadBytes = f.Server.MaxUploadBytes })

	pick("LOGGING_LEVEL", f.Logging.Level != "", func() { envConfig.Logging.Level = f.Logging.Level })
	pick("LOGGING_OUTPUT", f.Logging.Output != "", func() { envConfig.Logging.Output = f.Logging.Output })
	pick("LOGGING_FILE_PATH", f.Logging.FilePath != "", func() { envConfig.Logging.FilePath = f.Logging.FilePath })

	pick("ANALYSIS_SEED", f.Analysis.Seed != 0, func() { envConfig.Analysis.Seed = f.Analysis.Seed })
	pick("ANALYSIS_CLUSTERS", f.Analysis.Clusters != 0, func() { envConfig.Analysis.Clusters = f.Analysis.Clusters })
	pick("ANALYSIS_RESTARTS", f.Analysis.Restarts != 0, func() { envConfig.Analysis.Restarts = f.Analysis.Restarts })
	pick("ANALYSIS_MAX_ITERATIONS", f.Analysis.MaxIterations != 0, func() { envConfig.Analysis.MaxIterations = f.Analysis.MaxIterations })
	pick("ANALYSIS_HIGH_VALUE_THRESHOLD", f.Analysis.HighValueThreshold != 0, func() { envConfig.Analysis.HighValueThreshold = f.Analysis.HighValueThreshold })
	pick("ANALYSIS_HIGH_VALUE_DISPLAY_CAP", f.Analysis.HighValueDisplayCap != 0, func() { envConfig.Analysis.HighValueDisplayCap = f.Analysis.HighValueDisplayCap })
	pick("ANALYSIS_CLV_PERCENTILE", f.Analysis.CLVPercentile != 0, func() { envConfig.Analysis.CLVPercentile = f.Analysis.CLVPercentile })
	pick("ANALYSIS_CLV_DEDUPE", f.Analysis.CLVDedupe != "", func() { envConfig.Analysis.CLVDedupe = f.Analysis.CLVDedupe })
	pick("ANALYSIS_HISTOGRAM_BINS", f.Analysis.HistogramBins != 0, func() { envConfig.Analysis.HistogramBins = f.Analysis.HistogramBins })
	pick("ANALYSIS_MAX_CONCURRENT", f.Analysis.MaxConcurrent != 0, func() { envConfig.Analysis.MaxConcurrent = f.Analysis.MaxConcurrent })

	pick("SECURITY_ALLOWED_ORIGINS", len(f.Security.AllowedOrigins) > 0, func() { envConfig.Security.AllowedOrigins = f.Security.AllowedOrigins })
	pick("TELEMETRY_TRACE_EXPORTER", f.Telemetry.TraceExporter != "", func() { envConfig.Telemetry.TraceExporter = f.Telemetry.TraceExporter })

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	// JSON is the only supported log format
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return c.Analysis.Validate()
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the pipeline settings.
func (a AnalysisConfig) Validate() error {
	err := validate.Struct(a)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Errorf("invalid analysis setting: %s is %v, must satisfy %s",
		strings.ReplaceAll(fe.Field(), "_", " "), fe.Value(), rule)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  55 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Analysis: DefaultAnalysis(),
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricsEnabled: true,
			SampleRate:     1.0,
		},
	}
}

// DefaultAnalysis returns the pipeline settings used when nothing is configured.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Seed:                DefaultSeed,
		Clusters:            DefaultClusters,
		Restarts:            DefaultRestarts,
		MaxIterations:       DefaultMaxIterations,
		HighValueThreshold:  DefaultHighValueThreshold,
		HighValueDisplayCap: DefaultHighValueDisplayCap,
		CLVPercentile:       DefaultCLVPercentile,
		CLVDedupe:           CLVDedupeCustomer,
		HistogramBins:       DefaultHistogramBins,
		MaxConcurrent:       DefaultMaxConcurrent,
	}
}
