package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for igvision
type Config struct {
	// Instagram session and client settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Rate limiting of API requests
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy of the Instagram client
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Object detection model
	Model ModelConfig `yaml:"model" json:"model"`

	// Report outputs
	Report ReportConfig `yaml:"report" json:"report"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	PageSize  int    `yaml:"page_size" json:"page_size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds the backoff settings for retryable request failures
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	MediaDirectory string        `yaml:"media_directory" json:"media_directory"`
}

// ModelConfig describes the darknet detector and its post-processing
type ModelConfig struct {
	NamesFile           string  `yaml:"names_file" json:"names_file"`
	ConfigFile          string  `yaml:"config_file" json:"config_file"`
	WeightsFile         string  `yaml:"weights_file" json:"weights_file"`
	InputSize           int     `yaml:"input_size" json:"input_size"`
	ConfidenceThreshold float32 `yaml:"confidence_threshold" json:"confidence_threshold"`
	NMSThreshold        float32 `yaml:"nms_threshold" json:"nms_threshold"`
	ClassAwareNMS       bool    `yaml:"class_aware_nms" json:"class_aware_nms"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	Output      string `yaml:"output" json:"output"`
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
	SQLiteTable string `yaml:"sqlite_table" json:"sqlite_table"`
	Timezone    string `yaml:"timezone" json:"timezone"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			PageSize:  50,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Download: DownloadConfig{
			Timeout:        30 * time.Second,
			MediaDirectory: "./media",
		},
		Model: ModelConfig{
			NamesFile:           "coco.names",
			ConfigFile:          "yolov3-spp.cfg",
			WeightsFile:         "yolov3-spp.weights",
			InputSize:           416,
			ConfidenceThreshold: 0.5,
			NMSThreshold:        0.7,
			ClassAwareNMS:       false,
		},
		Report: ReportConfig{
			Output:      "instagram_posts.csv",
			SQLiteTable: "posts",
			Timezone:    "Local",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionID := os.Getenv("IGVISION_SESSION_ID"); sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if csrfToken := os.Getenv("IGVISION_CSRF_TOKEN"); csrfToken != "" {
		c.Instagram.CSRFToken = csrfToken
	}
	if userAgent := os.Getenv("IGVISION_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}

	if rpm := os.Getenv("IGVISION_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid IGVISION_REQUESTS_PER_MINUTE %q: %w", rpm, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if dir := os.Getenv("IGVISION_MEDIA_DIR"); dir != "" {
		c.Download.MediaDirectory = dir
	}

	if names := os.Getenv("IGVISION_NAMES_FILE"); names != "" {
		c.Model.NamesFile = names
	}
	if cfgFile := os.Getenv("IGVISION_MODEL_CONFIG"); cfgFile != "" {
		c.Model.ConfigFile = cfgFile
	}
	if weights := os.Getenv("IGVISION_MODEL_WEIGHTS"); weights != "" {
		c.Model.WeightsFile = weights
	}

	if output := os.Getenv("IGVISION_OUTPUT"); output != "" {
		c.Report.Output = output
	}
	if tz := os.Getenv("IGVISION_TIMEZONE"); tz != "" {
		c.Report.Timezone = tz
	}

	if logLevel := os.Getenv("IGVISION_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igvision.yaml",
		".igvision.yml",
		filepath.Join(home, ".config", "igvision", "config.yaml"),
		filepath.Join(home, ".config", "igvision", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Location resolves the report timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" || strings.EqualFold(c.Report.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Report.Timezone)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.PageSize <= 0 || c.Instagram.PageSize > 50 {
		errs = append(errs, errors.New("page size must be between 1 and 50"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			errs = append(errs, errors.New("retry max attempts must be positive"))
		}
		if c.Retry.Multiplier < 1 {
			errs = append(errs, errors.New("retry multiplier must be at least 1"))
		}
		if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
			errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
		}
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MediaDirectory == "" {
		errs = append(errs, errors.New("media directory is required"))
	}

	if c.Model.NamesFile == "" {
		errs = append(errs, errors.New("names file is required"))
	}
	if c.Model.ConfigFile == "" || c.Model.WeightsFile == "" {
		errs = append(errs, errors.New("model config and weights files are required"))
	}
	if c.Model.InputSize <= 0 || c.Model.InputSize%32 != 0 {
		errs = append(errs, errors.New("model input size must be a positive multiple of 32"))
	}
	if c.Model.ConfidenceThreshold < 0 || c.Model.ConfidenceThreshold > 1 {
		errs = append(errs, errors.New("confidence threshold must be between 0 and 1"))
	}
	if c.Model.NMSThreshold < 0 || c.Model.NMSThreshold > 1 {
		errs = append(errs, errors.New("nms threshold must be between 0 and 1"))
	}

	if c.Report.Output == "" {
		errs = append(errs, errors.New("report output path is required"))
	}
	if c.Report.SQLitePath != "" && c.Report.SQLiteTable == "" {
		errs = append(errs, errors.New("sqlite table name is required when sqlite path is set"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Report.Timezone, err))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied, so callers add a key only when
// the user changed the flag.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["names"].(string); ok && v != "" {
		c.Model.NamesFile = v
	}
	if v, ok := flags["config"].(string); ok && v != "" {
		c.Model.ConfigFile = v
	}
	if v, ok := flags["weights"].(string); ok && v != "" {
		c.Model.WeightsFile = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Report.Output = v
	}
	if v, ok := flags["sqlite"].(string); ok && v != "" {
		c.Report.SQLitePath = v
	}
	if v, ok := flags["media-dir"].(string); ok && v != "" {
		c.Download.MediaDirectory = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["class-aware-nms"].(bool); ok {
		c.Model.ClassAwareNMS = v
	}
	if v, ok := flags["timezone"].(string); ok && v != "" {
		c.Report.Timezone = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igvision.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
