package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the shortlist configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IngestConfig controls discovery, extraction and batch embedding.
type IngestConfig struct {
	Workers        int    `yaml:"workers"`
	FileTimeoutSec int    `yaml:"file_timeout_sec"`
	BatchSize      int    `yaml:"batch_size"`
	ProgressEvery  int    `yaml:"progress_every"`
	Extension      string `yaml:"extension"`
	MaxFileSizeMB  int    `yaml:"max_file_size_mb"`
}

// SearchConfig controls retrieval.
type SearchConfig struct {
	DefaultTopK  int `yaml:"default_top_k"`
	PreviewChars int `yaml:"preview_chars"`
}

// EnrichConfig controls LLM enrichment.
type EnrichConfig struct {
	MaxWorkers   int  `yaml:"max_workers"`
	TimeoutSec   int  `yaml:"timeout_sec"`
	MaxRetries   *int `yaml:"max_retries"`
	BaseDelayMs  int  `yaml:"base_delay_ms"`
	ProjectChars int  `yaml:"project_chars"`
	ResumeChars  int  `yaml:"resume_chars"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	Provider          string        `yaml:"provider"` // openai, gemini
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       *float32      `yaml:"temperature"`
	RequestsPerMinute int           `yaml:"requests_per_minute"` // 0 = unlimited
	Breaker           BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the LLM client.
type BreakerConfig struct {
	MaxFailures      uint32 `yaml:"max_failures"`
	OpenTimeoutSec   int    `yaml:"open_timeout_sec"`
	HalfOpenRequests uint32 `yaml:"half_open_requests"`
}

// CacheConfig holds the embedding cache store settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether an external cache store is configured.
func (c CacheConfig) Enabled() bool {
	return c.Driver != "" && c.Driver != "none"
}

// FileTimeout returns the per-file extraction deadline.
func (c IngestConfig) FileTimeout() time.Duration {
	return time.Duration(c.FileTimeoutSec) * time.Second
}

// Timeout returns the per-candidate enrichment deadline.
func (c EnrichConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// BaseDelay returns the first retry delay.
func (c EnrichConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// Retries returns the configured retry count.
func (c EnrichConfig) Retries() int {
	if c.MaxRetries == nil {
		return 0
	}
	return *c.MaxRetries
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 600
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.FileTimeoutSec <= 0 {
		c.Ingest.FileTimeoutSec = 120
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 32
	}
	if c.Ingest.ProgressEvery <= 0 {
		c.Ingest.ProgressEvery = 10
	}
	if c.Ingest.Extension == "" {
		c.Ingest.Extension = ".pdf"
	}
	if c.Ingest.MaxFileSizeMB <= 0 {
		c.Ingest.MaxFileSizeMB = 50
	}

	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.PreviewChars <= 0 {
		c.Search.PreviewChars = 1000
	}

	if c.Enrich.MaxWorkers <= 0 {
		c.Enrich.MaxWorkers = 4
	}
	if c.Enrich.TimeoutSec <= 0 {
		c.Enrich.TimeoutSec = 120
	}
	if c.Enrich.MaxRetries == nil {
		retries := 2
		c.Enrich.MaxRetries = &retries
	}
	if c.Enrich.BaseDelayMs <= 0 {
		c.Enrich.BaseDelayMs = 1000
	}
	if c.Enrich.ProjectChars <= 0 {
		c.Enrich.ProjectChars = 500
	}
	if c.Enrich.ResumeChars <= 0 {
		c.Enrich.ResumeChars = 1500
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-2.5-flash"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 400
	}
	if c.LLM.Temperature == nil {
		temp := float32(0.3)
		c.LLM.Temperature = &temp
	}
	if c.LLM.Breaker.MaxFailures == 0 {
		c.LLM.Breaker.MaxFailures = 5
	}
	if c.LLM.Breaker.OpenTimeoutSec <= 0 {
		c.LLM.Breaker.OpenTimeoutSec = 30
	}
	if c.LLM.Breaker.HalfOpenRequests == 0 {
		c.LLM.Breaker.HalfOpenRequests = 1
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "shortlist:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.Ingest.Extension, ".") {
		return fmt.Errorf("ingest.extension must start with a dot, got %q", c.Ingest.Extension)
	}
	if c.Enrich.MaxRetries != nil && *c.Enrich.MaxRetries < 0 {
		return fmt.Errorf("enrich.max_retries must be >= 0, got %d", *c.Enrich.MaxRetries)
	}
	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"gemini\", got %q", c.LLM.Provider)
	}
	if c.LLM.Temperature != nil && (*c.LLM.Temperature < 0 || *c.LLM.Temperature > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", *c.LLM.Temperature)
	}
	switch c.Cache.Driver {
	case "none":
	case "redis", "valkey":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\", \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
