package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// Config holds the namedex API configuration.
type Config struct {
	HTTP        HTTPConfig                  `yaml:"http"`
	Database    DatabaseConfig              `yaml:"database"`
	Storage     StorageConfig               `yaml:"storage"`
	LLM         LLMConfig                   `yaml:"llm"`
	Pipeline    PipelineConfig              `yaml:"pipeline"`
	Collections map[string]CollectionConfig `yaml:"collections"`
	Auth        AuthConfig                  `yaml:"auth"`
	Logging     LoggingConfig               `yaml:"logging"`
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

// DatabaseConfig holds knowledge-store connection settings.
// Empty addrs switches the loader to snapshot-file mode.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds knowledge-store key layout and snapshot settings.
type StorageConfig struct {
	KeyPrefix    string `yaml:"key_prefix"`
	SnapshotPath string `yaml:"snapshot_path"`
	LoadWorkers  int    `yaml:"load_workers"`
}

// LLMConfig holds the language model collaborator settings.
type LLMConfig struct {
	Driver           string `yaml:"driver"` // openai, langchain (default: openai)
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	ChatModel        string `yaml:"chat_model"`
	EmbeddingModel   string `yaml:"embedding_model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// PipelineConfig holds orchestration budgets. Retry counts and timeouts are
// configuration, not code.
type PipelineConfig struct {
	TopK               int            `yaml:"top_k"`
	ContextBudgetChars int            `yaml:"context_budget_chars"`
	StageTimeoutSec    StageTimeouts  `yaml:"stage_timeout_sec"`
	CollectionTimeout  int            `yaml:"collection_timeout_ms"`
	Retries            map[string]int `yaml:"retries"` // analyze, retrieve, synthesize
	BackoffBaseMs      int            `yaml:"backoff_base_ms"`
	KeywordFallback    bool           `yaml:"keyword_fallback"`
}

// StageTimeouts holds per-stage deadlines in seconds.
type StageTimeouts struct {
	Analyze    int `yaml:"analyze"`
	Retrieve   int `yaml:"retrieve"`
	Synthesize int `yaml:"synthesize"`
}

// CollectionConfig holds one collection's scoring profile.
type CollectionConfig struct {
	WLex          float64            `yaml:"w_lex"`
	WVec          float64            `yaml:"w_vec"`
	KeywordWeight float64            `yaml:"keyword_weight"`
	Boost         float64            `yaml:"boost"`
	FieldWeights  map[string]float64 `yaml:"field_weights"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "namedex:"
	}
	if c.Storage.LoadWorkers <= 0 {
		c.Storage.LoadWorkers = 8
	}
	if c.LLM.Driver == "" {
		c.LLM.Driver = "openai"
	}
	if c.LLM.Dimensions <= 0 {
		c.LLM.Dimensions = 1536
	}
	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = 5
	}
	if c.Pipeline.ContextBudgetChars <= 0 {
		c.Pipeline.ContextBudgetChars = 6000
	}
	if c.Pipeline.StageTimeoutSec.Analyze <= 0 {
		c.Pipeline.StageTimeoutSec.Analyze = 10
	}
	if c.Pipeline.StageTimeoutSec.Retrieve <= 0 {
		c.Pipeline.StageTimeoutSec.Retrieve = 5
	}
	if c.Pipeline.StageTimeoutSec.Synthesize <= 0 {
		c.Pipeline.StageTimeoutSec.Synthesize = 30
	}
	if c.Pipeline.CollectionTimeout <= 0 {
		c.Pipeline.CollectionTimeout = 2000
	}
	if c.Pipeline.Retries == nil {
		c.Pipeline.Retries = map[string]int{}
	}
	for _, stage := range []string{"analyze", "retrieve", "synthesize"} {
		if c.Pipeline.Retries[stage] <= 0 {
			c.Pipeline.Retries[stage] = 2
		}
	}
	if c.Pipeline.BackoffBaseMs <= 0 {
		c.Pipeline.BackoffBaseMs = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 && c.Storage.SnapshotPath == "" {
		return fmt.Errorf("either database.addrs or storage.snapshot_path is required")
	}
	switch c.LLM.Driver {
	case "openai", "langchain":
	default:
		return fmt.Errorf("llm.driver must be \"openai\" or \"langchain\", got %q", c.LLM.Driver)
	}
	for name := range c.Collections {
		if _, err := domain.ParseCollection(name); err != nil {
			return fmt.Errorf("collections.%s: %w", name, err)
		}
	}
	for name, p := range c.ScoringProfiles() {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("collections.%s: %w", name, err)
		}
	}
	return nil
}

// ScoringProfiles converts the collection sections into domain profiles,
// falling back to the default profile for collections left unconfigured.
func (c *Config) ScoringProfiles() map[domain.Collection]domain.ScoringProfile {
	profiles := make(map[domain.Collection]domain.ScoringProfile, len(domain.Collections()))
	for _, col := range domain.Collections() {
		cc, ok := c.Collections[string(col)]
		if !ok {
			profiles[col] = domain.DefaultScoringProfile()
			continue
		}
		profiles[col] = domain.ScoringProfile{
			WLex:          cc.WLex,
			WVec:          cc.WVec,
			KeywordWeight: cc.KeywordWeight,
			FieldWeights:  cc.FieldWeights,
			Boost:         cc.Boost,
		}
	}
	return profiles
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
