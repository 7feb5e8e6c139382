package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

// Provider kinds understood by the extraction registry.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindOllama    = "ollama"
	KindBackend   = "backend"
)

var knownKinds = []string{KindOpenAI, KindAnthropic, KindOllama, KindBackend}

// defaultOrder is the provider priority used when extraction.order is empty.
var defaultOrder = []string{KindAnthropic, KindOpenAI}

var defaultModels = map[string]string{
	KindOpenAI:    "gpt-4o-mini",
	KindAnthropic: "claude-3-5-haiku-latest",
	KindOllama:    "llama3.1",
}

// Config holds the crisis portal API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Backend    BackendConfig    `yaml:"backend"`
	Cache      CacheConfig      `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ExtractionConfig holds the ordered provider registry.
type ExtractionConfig struct {
	Order              []string                  `yaml:"order"`
	TimeoutSec         int                       `yaml:"timeout_sec"`
	FallbackConfidence float64                   `yaml:"fallback_confidence"`
	Providers          map[string]ProviderConfig `yaml:"providers"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ProviderConfig holds one extraction provider. An empty APIKey leaves the
// provider registered but skipped.
type ProviderConfig struct {
	Kind        string       `yaml:"kind"` // defaults to the map key
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Temperature float64      `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BackendConfig holds the resource search backend settings.
type BackendConfig struct {
	BaseURL            string   `yaml:"base_url"`
	APIKey             string   `yaml:"api_key"`
	TimeoutSec         int      `yaml:"timeout_sec"`
	MaxRetries         *int     `yaml:"max_retries"`
	RetryBaseMs        int      `yaml:"retry_base_ms"`
	UnsupportedParams  []string `yaml:"unsupported_params"`
	FallbackQuery      string   `yaml:"fallback_query"`
	CrisisServiceTypes []string `yaml:"crisis_service_types"`
}

// CacheConfig holds the optional Valkey/Redis resource cache.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Standalone       bool     `yaml:"standalone"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	c.applyExtractionDefaults()

	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 12
	}
	// Zero disables retries; only an absent or negative value gets the default.
	if c.Backend.MaxRetries == nil || *c.Backend.MaxRetries < 0 {
		n := 3
		c.Backend.MaxRetries = &n
	}
	if c.Backend.RetryBaseMs <= 0 {
		c.Backend.RetryBaseMs = 1000
	}
	if c.Backend.FallbackQuery == "" {
		c.Backend.FallbackQuery = "mental health services"
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "crisisportal:"
	}
}

func (c *Config) applyExtractionDefaults() {
	e := &c.Extraction
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 12
	}
	if e.FallbackConfidence <= 0 {
		e.FallbackConfidence = 0.3
	}
	for name, p := range e.Providers {
		if p.Kind == "" {
			p.Kind = name
		}
		if p.Model == "" {
			p.Model = defaultModels[p.Kind]
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = 1024
		}
		e.Providers[name] = p
	}
	if len(e.Order) == 0 {
		for _, name := range defaultOrder {
			if _, ok := e.Providers[name]; ok {
				e.Order = append(e.Order, name)
			}
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if !govalidator.IsURL(c.Backend.BaseURL) {
		return fmt.Errorf("backend.base_url is not a valid URL: %q", c.Backend.BaseURL)
	}
	if c.Extraction.FallbackConfidence > 1 {
		return fmt.Errorf("extraction.fallback_confidence must be in [0, 1], got %v", c.Extraction.FallbackConfidence)
	}
	for _, name := range c.Extraction.Order {
		if _, ok := c.Extraction.Providers[name]; !ok {
			return fmt.Errorf("extraction.order references unknown provider %q", name)
		}
	}
	for name, p := range c.Extraction.Providers {
		if err := p.validate(name); err != nil {
			return err
		}
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	return nil
}

func (p ProviderConfig) validate(name string) error {
	if !slices.Contains(knownKinds, p.Kind) {
		return fmt.Errorf("extraction.providers.%s.kind must be one of %s, got %q",
			name, strings.Join(knownKinds, ", "), p.Kind)
	}
	if p.BaseURL != "" && !govalidator.IsURL(p.BaseURL) {
		return fmt.Errorf("extraction.providers.%s.base_url is not a valid URL: %q", name, p.BaseURL)
	}
	switch p.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"extraction.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
			name, p.Budget.Action,
		)
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
