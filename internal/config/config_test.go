package config

import (
	"testing"

	"github.com/kailas-cloud/namedex/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingStoreAndSnapshot(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	cfg.Storage.SnapshotPath = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when neither database.addrs nor storage.snapshot_path is set")
	}
}

func TestValidate_SnapshotOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	cfg.Storage.SnapshotPath = "testdata/snapshot.json"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for snapshot-only config: %v", err)
	}
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Driver = "ollama"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown llm driver")
	}

	expected := `llm.driver must be "openai" or "langchain", got "ollama"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidDrivers(t *testing.T) {
	for _, driver := range []string{"openai", "langchain"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.LLM.Driver = driver

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_UnknownCollection(t *testing.T) {
	cfg := validConfig()
	cfg.Collections = map[string]CollectionConfig{
		"glossary": {WLex: 0.5, WVec: 0.5},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown collection name")
	}
}

func TestValidate_InvalidProfile(t *testing.T) {
	cfg := validConfig()
	cfg.Collections = map[string]CollectionConfig{
		"rules": {WLex: -1, WVec: 0.5},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative lexical weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "namedex:" {
		t.Errorf("expected KeyPrefix='namedex:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.LoadWorkers != 8 {
		t.Errorf("expected LoadWorkers=8, got %d", cfg.Storage.LoadWorkers)
	}
	if cfg.LLM.Driver != "openai" {
		t.Errorf("expected Driver='openai', got %q", cfg.LLM.Driver)
	}
	if cfg.LLM.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.LLM.Dimensions)
	}
	if cfg.Pipeline.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.ContextBudgetChars != 6000 {
		t.Errorf("expected ContextBudgetChars=6000, got %d", cfg.Pipeline.ContextBudgetChars)
	}
	if cfg.Pipeline.StageTimeoutSec.Analyze != 10 {
		t.Errorf("expected analyze timeout=10, got %d", cfg.Pipeline.StageTimeoutSec.Analyze)
	}
	if cfg.Pipeline.StageTimeoutSec.Retrieve != 5 {
		t.Errorf("expected retrieve timeout=5, got %d", cfg.Pipeline.StageTimeoutSec.Retrieve)
	}
	if cfg.Pipeline.StageTimeoutSec.Synthesize != 30 {
		t.Errorf("expected synthesize timeout=30, got %d", cfg.Pipeline.StageTimeoutSec.Synthesize)
	}
	if cfg.Pipeline.CollectionTimeout != 2000 {
		t.Errorf("expected CollectionTimeout=2000, got %d", cfg.Pipeline.CollectionTimeout)
	}
	for _, stage := range []string{"analyze", "retrieve", "synthesize"} {
		if cfg.Pipeline.Retries[stage] != 2 {
			t.Errorf("expected retries[%s]=2, got %d", stage, cfg.Pipeline.Retries[stage])
		}
	}
	if cfg.Pipeline.BackoffBaseMs != 200 {
		t.Errorf("expected BackoffBaseMs=200, got %d", cfg.Pipeline.BackoffBaseMs)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:", LoadWorkers: 4},
		Pipeline: PipelineConfig{TopK: 10, Retries: map[string]int{"synthesize": 5}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Pipeline.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Pipeline.TopK)
	}
	if cfg.Pipeline.Retries["synthesize"] != 5 {
		t.Errorf("expected retries[synthesize]=5, got %d", cfg.Pipeline.Retries["synthesize"])
	}
	if cfg.Pipeline.Retries["analyze"] != 2 {
		t.Errorf("expected retries[analyze]=2, got %d", cfg.Pipeline.Retries["analyze"])
	}
}

func TestScoringProfiles_Fallback(t *testing.T) {
	cfg := validConfig()
	cfg.Collections = map[string]CollectionConfig{
		"rules": {
			WLex:          0.7,
			WVec:          0.3,
			KeywordWeight: 1.5,
			Boost:         0.1,
			FieldWeights:  map[string]float64{"rule_en": 1.0},
		},
	}

	profiles := cfg.ScoringProfiles()
	if len(profiles) != len(domain.Collections()) {
		t.Fatalf("expected a profile for every collection, got %d", len(profiles))
	}

	rules := profiles[domain.CollectionRules]
	if rules.WLex != 0.7 || rules.WVec != 0.3 {
		t.Errorf("expected configured rules weights 0.7/0.3, got %v/%v", rules.WLex, rules.WVec)
	}
	if rules.Boost != 0.1 {
		t.Errorf("expected rules boost 0.1, got %v", rules.Boost)
	}

	def := domain.DefaultScoringProfile()
	dict := profiles[domain.CollectionDictionary]
	if dict.WLex != def.WLex || dict.WVec != def.WVec || dict.KeywordWeight != def.KeywordWeight {
		t.Errorf("expected default profile for unconfigured dictionary, got %+v", dict)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NAMEDEX_TEST_HOST", "redis.internal")

	in := []byte("addr: ${NAMEDEX_TEST_HOST}:6379\nprefix: ${NAMEDEX_TEST_PREFIX:-namedex:}\nempty: ${NAMEDEX_TEST_UNSET}\n")
	got := string(expandEnvVars(in))

	want := "addr: redis.internal:6379\nprefix: namedex:\nempty: \n"
	if got != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestExpandEnvVars_SetOverridesDefault(t *testing.T) {
	t.Setenv("NAMEDEX_TEST_PORT", "9090")

	got := string(expandEnvVars([]byte("port: ${NAMEDEX_TEST_PORT:-8080}")))
	if got != "port: 9090" {
		t.Errorf("expected env value to win over default, got %q", got)
	}
}
