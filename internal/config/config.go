// Package config provides configuration loading and validation for the docflow server.
// It uses koanf to merge an optional YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the docflow server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Audit trail
	AuditLogFile  string `koanf:"audit_log_file"`  // Optional JSON-lines copy of every audit entry
	AuditPageSize int    `koanf:"audit_page_size"` // Entries shown on the page and default API limit

	// Tracing (OpenTelemetry)
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"tracing_exporter"` // otlp-http or otlp-grpc
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	TracingInsecure   bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrInvalidPort            = errors.New("PORT must be a valid integer between 1 and 65535")
	ErrInvalidAuditPageSize   = errors.New("AUDIT_PAGE_SIZE must be a positive integer")
	ErrInvalidTracingExporter = errors.New("TRACING_EXPORTER must be otlp-http or otlp-grpc")
	ErrInvalidSampleRate      = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrMissingOTLPEndpoint    = errors.New("OTLP_ENDPOINT is required when tracing is enabled")
)

// Default values for configuration.
const (
	DefaultPort              = 8080
	DefaultEnv               = "development"
	DefaultAuditPageSize     = 50
	DefaultTracingExporter   = "otlp-http"
	DefaultTracingSampleRate = 1.0
)

// Load reads configuration from an optional config file and environment variables.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try DOCFLOW_PORT first, then PORT
	port, err := getEnvIntOrDefaultMulti([]string{"DOCFLOW_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	pageSize, err := getEnvIntOrDefault("DOCFLOW_AUDIT_PAGE_SIZE", k.Int("audit_page_size"), DefaultAuditPageSize)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	sampleRate := DefaultTracingSampleRate
	if k.Exists("tracing_sample_rate") {
		sampleRate = k.Float64("tracing_sample_rate")
	}
	if val := os.Getenv("DOCFLOW_TRACING_SAMPLE_RATE"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("DOCFLOW_TRACING_SAMPLE_RATE must be a valid float: %w", ErrInvalidSampleRate))
		} else {
			sampleRate = f
		}
	}

	cfg := &Config{
		Port:              port,
		Env:               getEnvOrDefaultMulti([]string{"DOCFLOW_ENV", "ENV"}, k.String("env"), DefaultEnv),
		AuditLogFile:      getEnvOrKoanf("DOCFLOW_AUDIT_LOG_FILE", k, "audit_log_file"),
		AuditPageSize:     pageSize,
		TracingEnabled:    getEnvBoolOrKoanf("DOCFLOW_TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporter:   getEnvOrDefaultMulti([]string{"DOCFLOW_TRACING_EXPORTER"}, k.String("tracing_exporter"), DefaultTracingExporter),
		OTLPEndpoint:      getEnvOrKoanf("OTEL_EXPORTER_OTLP_ENDPOINT", k, "otlp_endpoint"),
		TracingSampleRate: sampleRate,
		TracingInsecure:   getEnvBoolOrKoanf("DOCFLOW_TRACING_INSECURE", k, "tracing_insecure"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvBoolOrKoanf parses a boolean env var (true/1/yes/on, false/0/no/off),
// falling back to the koanf value. Unrecognized env values are ignored.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	v := k.Bool(koanfKey)
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			v = true
		case "false", "0", "no", "off":
			v = false
		}
	}
	return v
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidAuditPageSize)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that configuration values are within range.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.AuditPageSize < 1 {
		errs = append(errs, ErrInvalidAuditPageSize)
	}

	// Tracing settings only matter when tracing is on
	if c.TracingEnabled {
		if c.TracingExporter != "otlp-http" && c.TracingExporter != "otlp-grpc" {
			errs = append(errs, ErrInvalidTracingExporter)
		}
		if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
			errs = append(errs, ErrInvalidSampleRate)
		}
		if c.OTLPEndpoint == "" {
			errs = append(errs, ErrMissingOTLPEndpoint)
		}
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
func (c *Config) LogSummary() map[string]string {
	auditFile := c.AuditLogFile
	if auditFile == "" {
		auditFile = "<not set>"
	}
	return map[string]string{
		"port":                fmt.Sprintf("%d", c.Port),
		"env":                 c.Env,
		"audit_log_file":      auditFile,
		"audit_page_size":     fmt.Sprintf("%d", c.AuditPageSize),
		"tracing_enabled":     fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":    c.TracingExporter,
		"otlp_endpoint":       maskEndpoint(c.OTLPEndpoint),
		"tracing_sample_rate": fmt.Sprintf("%.2f", c.TracingSampleRate),
		"tracing_insecure":    fmt.Sprintf("%t", c.TracingInsecure),
	}
}

// maskEndpoint hides credentials embedded in an endpoint URL (user:pass@host).
func maskEndpoint(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	rest := s
	scheme := ""
	if schemeEnd != -1 {
		scheme = s[:schemeEnd+3]
		rest = s[schemeEnd+3:]
	}

	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}
	return scheme + "****" + rest[atIndex:]
}
