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

const (
	// MaxPageSize is the largest page VK serves for conversation and history lists
	MaxPageSize = 200

	// DefaultAPIVersion is the VK API version the client speaks
	DefaultAPIVersion = "5.199"

	// DefaultBaseURL is the VK API method endpoint
	DefaultBaseURL = "https://api.vk.com/method"
)

// Config holds all configuration options for the crawler
type Config struct {
	// VK API access
	VK VKConfig `yaml:"vk" json:"vk"`

	// Crawl behaviour
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VKConfig holds VK API configuration
type VKConfig struct {
	AccessToken       string `yaml:"access_token" json:"access_token"`
	APIVersion        string `yaml:"api_version" json:"api_version"`
	BaseURL           string `yaml:"base_url" json:"base_url"`
	RequestsPerSecond int    `yaml:"requests_per_second" json:"requests_per_second"`
}

// CrawlConfig holds enumeration settings
type CrawlConfig struct {
	PeerKinds            []string `yaml:"peer_kinds" json:"peer_kinds"`
	ConversationPageSize int      `yaml:"conversation_page_size" json:"conversation_page_size"`
	AttachmentPageSize   int      `yaml:"attachment_page_size" json:"attachment_page_size"`
	MediaType            string   `yaml:"media_type" json:"media_type"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Delay           time.Duration `yaml:"delay" json:"delay"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	ContinueOnError bool          `yaml:"continue_on_error" json:"continue_on_error"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	SaveReport    bool   `yaml:"save_report" json:"save_report"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`

	// DisableConsole keeps log entries off stderr, e.g. while the dashboard owns the terminal
	DisableConsole bool `yaml:"disable_console" json:"disable_console"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		VK: VKConfig{
			APIVersion:        DefaultAPIVersion,
			BaseURL:           DefaultBaseURL,
			RequestsPerSecond: 3,
		},
		Crawl: CrawlConfig{
			PeerKinds:            []string{"user"},
			ConversationPageSize: MaxPageSize,
			AttachmentPageSize:   MaxPageSize,
			MediaType:            "photo",
		},
		Download: DownloadConfig{
			Delay:           100 * time.Millisecond,
			Timeout:         30 * time.Second,
			ContinueOnError: false,
		},
		Output: OutputConfig{
			BaseDirectory: "./photos",
			SaveReport:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// The bare "token" variable predates the prefixed one
	if token := os.Getenv("token"); token != "" {
		c.VK.AccessToken = token
	}
	if token := os.Getenv("VKSCRAPER_TOKEN"); token != "" {
		c.VK.AccessToken = token
	}
	if version := os.Getenv("VKSCRAPER_API_VERSION"); version != "" {
		c.VK.APIVersion = version
	}
	if rps := os.Getenv("VKSCRAPER_REQUESTS_PER_SECOND"); rps != "" {
		val, err := strconv.Atoi(rps)
		if err != nil {
			return fmt.Errorf("invalid VKSCRAPER_REQUESTS_PER_SECOND: %w", err)
		}
		c.VK.RequestsPerSecond = val
	}

	if kinds := os.Getenv("VKSCRAPER_PEER_KINDS"); kinds != "" {
		c.Crawl.PeerKinds = splitList(kinds)
	}

	if delay := os.Getenv("VKSCRAPER_DELAY_MS"); delay != "" {
		ms, err := strconv.Atoi(delay)
		if err != nil {
			return fmt.Errorf("invalid VKSCRAPER_DELAY_MS: %w", err)
		}
		c.Download.Delay = time.Duration(ms) * time.Millisecond
	}
	if cont := os.Getenv("VKSCRAPER_CONTINUE_ON_ERROR"); cont != "" {
		c.Download.ContinueOnError = strings.ToLower(cont) == "true"
	}

	if outputDir := os.Getenv("VKSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("VKSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".vkscraper.yaml",
		".vkscraper.yml",
		filepath.Join(home, ".config", "vkscraper", "config.yaml"),
		filepath.Join(home, ".config", "vkscraper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// The access token is checked separately because it may come from a credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.VK.APIVersion == "" {
		errs = append(errs, errors.New("VK API version is required"))
	}
	if c.VK.BaseURL == "" {
		errs = append(errs, errors.New("VK base URL is required"))
	}
	if c.VK.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	if len(c.Crawl.PeerKinds) == 0 {
		errs = append(errs, errors.New("at least one peer kind is required"))
	}
	validKinds := map[string]bool{"user": true, "group": true, "chat": true}
	for _, kind := range c.Crawl.PeerKinds {
		if !validKinds[strings.ToLower(kind)] {
			errs = append(errs, fmt.Errorf("invalid peer kind: %s", kind))
		}
	}
	if c.Crawl.ConversationPageSize <= 0 || c.Crawl.ConversationPageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("conversation page size must be between 1 and %d", MaxPageSize))
	}
	if c.Crawl.AttachmentPageSize <= 0 || c.Crawl.AttachmentPageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("attachment page size must be between 1 and %d", MaxPageSize))
	}
	if c.Crawl.MediaType == "" {
		errs = append(errs, errors.New("media type is required"))
	}

	if c.Download.Delay < 0 {
		errs = append(errs, errors.New("download delay cannot be negative"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials reports whether an access token is present
func (c *Config) ValidateCredentials() error {
	if strings.TrimSpace(c.VK.AccessToken) == "" {
		return errors.New("VK access token is required")
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.VK.AccessToken = token
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if delay, ok := flags["delay"].(time.Duration); ok && delay >= 0 {
		c.Download.Delay = delay
	}
	if kinds, ok := flags["peer-kinds"].([]string); ok && len(kinds) > 0 {
		c.Crawl.PeerKinds = kinds
	}
	if rps, ok := flags["requests-per-second"].(int); ok && rps >= 0 {
		c.VK.RequestsPerSecond = rps
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.Timeout = timeout
	}
	if cont, ok := flags["continue-on-error"].(bool); ok {
		c.Download.ContinueOnError = cont
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".vkscraper.env"))

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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
