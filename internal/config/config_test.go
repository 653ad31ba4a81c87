package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var secretEnvVars = []string{
	"NEWSPULSE_LLM_OPENAI_KEY", "OPENAI_API_KEY",
	"NEWSPULSE_ANNOTATOR_HF_TOKEN", "HF_API_TOKEN",
	"NEWSPULSE_STORAGE_POSTGRES_DSN", "DATABASE_URL",
	"NEWSPULSE_STORAGE_REDIS_PASSWORD",
}

// clearSecrets blanks every secret env var for the duration of the test.
func clearSecrets(t *testing.T) {
	t.Helper()
	for _, e := range secretEnvVars {
		t.Setenv(e, "")
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Fetch defaults
	if cfg.Fetch.Limit != 10 {
		t.Errorf("Fetch.Limit: got %d, want 10", cfg.Fetch.Limit)
	}
	if len(cfg.Fetch.Sources) != 2 || cfg.Fetch.Sources[0] != "bing" || cfg.Fetch.Sources[1] != "rss" {
		t.Errorf("Fetch.Sources: got %v, want [bing rss]", cfg.Fetch.Sources)
	}
	if cfg.Fetch.BingURL != "https://www.bing.com/news/search" {
		t.Errorf("Fetch.BingURL: got %q", cfg.Fetch.BingURL)
	}
	if cfg.Fetch.FetchTimeout() != 15*time.Second {
		t.Errorf("Fetch.FetchTimeout(): got %v, want 15s", cfg.Fetch.FetchTimeout())
	}
	if cfg.Fetch.FullText {
		t.Error("Fetch.FullText should be false by default")
	}

	// Annotator defaults
	if cfg.Annotator.Backend != "lexicon" {
		t.Errorf("Annotator.Backend: got %q, want %q", cfg.Annotator.Backend, "lexicon")
	}
	if cfg.Annotator.MaxTopics != 3 {
		t.Errorf("Annotator.MaxTopics: got %d, want 3", cfg.Annotator.MaxTopics)
	}
	if cfg.Annotator.LabelScheme != "sst2" {
		t.Errorf("Annotator.LabelScheme: got %q, want %q", cfg.Annotator.LabelScheme, "sst2")
	}
	if cfg.Annotator.HFSentimentModel != "distilbert-base-uncased-finetuned-sst-2-english" {
		t.Errorf("Annotator.HFSentimentModel: got %q", cfg.Annotator.HFSentimentModel)
	}

	// LLM defaults
	if cfg.LLM.Primary != "openai" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "openai")
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaURL: got %q", cfg.LLM.OllamaURL)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("LLM.Temperature: got %f, want 0.1", cfg.LLM.Temperature)
	}

	// Narration defaults
	if !cfg.Narration.Enabled {
		t.Error("Narration.Enabled should be true by default")
	}
	if cfg.Narration.TargetLang != "hi" {
		t.Errorf("Narration.TargetLang: got %q, want %q", cfg.Narration.TargetLang, "hi")
	}

	// Storage defaults
	if cfg.Storage.AudioBackend != "memory" {
		t.Errorf("Storage.AudioBackend: got %q, want %q", cfg.Storage.AudioBackend, "memory")
	}
	if cfg.Storage.ReportBackend != "memory" {
		t.Errorf("Storage.ReportBackend: got %q, want %q", cfg.Storage.ReportBackend, "memory")
	}
	if cfg.Storage.AudioTTL != 3600 {
		t.Errorf("Storage.AudioTTL: got %d, want 3600", cfg.Storage.AudioTTL)
	}

	// API defaults
	if cfg.API.Port != 8000 {
		t.Errorf("API.Port: got %d, want 8000", cfg.API.Port)
	}
	if cfg.API.Addr() != "0.0.0.0:8000" {
		t.Errorf("API.Addr(): got %q", cfg.API.Addr())
	}
	if cfg.API.Timeout() != 60*time.Second {
		t.Errorf("API.Timeout(): got %v, want 60s", cfg.API.Timeout())
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NEWSPULSE_FETCH_LIMIT", "5")
	t.Setenv("NEWSPULSE_ANNOTATOR_BACKEND", "llm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Fetch.Limit != 5 {
		t.Errorf("Fetch.Limit: got %d, want 5", cfg.Fetch.Limit)
	}
	if cfg.Annotator.Backend != "llm" {
		t.Errorf("Annotator.Backend: got %q, want %q", cfg.Annotator.Backend, "llm")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearSecrets(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
fetch:
  sources: ["rss"]
  limit: 7
annotator:
  backend: "huggingface"
  concurrency: 2
  hf_token: "hf_test_token_1234567890"
llm:
  primary: "ollama"
  model: "llama3"
narration:
  enabled: false
  target_lang: "fr"
storage:
  audio_backend: "redis"
  redis_addr: "cache:6379"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if len(cfg.Fetch.Sources) != 1 || cfg.Fetch.Sources[0] != "rss" {
		t.Errorf("Fetch.Sources: got %v, want [rss]", cfg.Fetch.Sources)
	}
	if cfg.Fetch.Limit != 7 {
		t.Errorf("Fetch.Limit: got %d, want 7", cfg.Fetch.Limit)
	}
	if cfg.Annotator.Backend != "huggingface" {
		t.Errorf("Annotator.Backend: got %q, want %q", cfg.Annotator.Backend, "huggingface")
	}
	if cfg.Annotator.Concurrency != 2 {
		t.Errorf("Annotator.Concurrency: got %d, want 2", cfg.Annotator.Concurrency)
	}
	if cfg.Annotator.HFToken != "hf_test_token_1234567890" {
		t.Errorf("Annotator.HFToken: got %q", cfg.Annotator.HFToken)
	}
	if cfg.LLM.Primary != "ollama" {
		t.Errorf("LLM.Primary: got %q, want %q", cfg.LLM.Primary, "ollama")
	}
	if cfg.Narration.Enabled {
		t.Error("Narration.Enabled: got true, want false")
	}
	if cfg.Narration.TargetLang != "fr" {
		t.Errorf("Narration.TargetLang: got %q, want %q", cfg.Narration.TargetLang, "fr")
	}
	if cfg.Storage.RedisAddr != "cache:6379" {
		t.Errorf("Storage.RedisAddr: got %q", cfg.Storage.RedisAddr)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	// Untouched sections keep their defaults.
	if cfg.Annotator.MaxTopics != 3 {
		t.Errorf("Annotator.MaxTopics: got %d, want 3", cfg.Annotator.MaxTopics)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NEWSPULSE_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	t.Setenv("HF_API_TOKEN", "hf_token_789")
	t.Setenv("DATABASE_URL", "postgres://localhost/newspulse")
	t.Setenv("NEWSPULSE_STORAGE_REDIS_PASSWORD", "redis-secret")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.Annotator.HFToken != "hf_token_789" {
		t.Errorf("HFToken: got %q", cfg.Annotator.HFToken)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/newspulse" {
		t.Errorf("PostgresDSN: got %q", cfg.Storage.PostgresDSN)
	}
	if cfg.Storage.RedisPassword != "redis-secret" {
		t.Errorf("RedisPassword: got %q", cfg.Storage.RedisPassword)
	}
}

func TestOverrideFromEnvPrefersPrefixed(t *testing.T) {
	clearSecrets(t)
	t.Setenv("NEWSPULSE_LLM_OPENAI_KEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "plain")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.LLM.OpenAIKey != "prefixed" {
		t.Errorf("OpenAIKey: got %q, want %q", cfg.LLM.OpenAIKey, "prefixed")
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearSecrets(t)

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "from-config"},
	}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "***"},
		{"abc", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-proj-abcdefghijklmnop", "sk-...nop"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

// ── CheckAPIKeys ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearSecrets(t)

	keys := CheckAPIKeys(&Config{})
	if len(keys) != 4 {
		t.Fatalf("CheckAPIKeys: got %d keys, want 4", len(keys))
	}
	for _, k := range keys {
		if k.IsSet {
			t.Errorf("%s: IsSet should be false", k.Name)
		}
		if k.Source != KeySourceNone {
			t.Errorf("%s: Source got %q, want %q", k.Name, k.Source, KeySourceNone)
		}
		if k.Masked != "" {
			t.Errorf("%s: Masked should be empty, got %q", k.Name, k.Masked)
		}
	}
}

func TestCheckAPIKeysSourceDetection(t *testing.T) {
	clearSecrets(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env-0000000000")

	cfg := &Config{
		LLM:       LLMConfig{OpenAIKey: "sk-from-env-0000000000"},
		Annotator: AnnotatorConfig{HFToken: "hf_from_config_111111"},
	}
	keys := CheckAPIKeys(cfg)

	if keys[0].Source != KeySourceEnv {
		t.Errorf("OpenAI source: got %q, want %q", keys[0].Source, KeySourceEnv)
	}
	if keys[1].Source != KeySourceConfig {
		t.Errorf("HF source: got %q, want %q", keys[1].Source, KeySourceConfig)
	}
	if keys[1].Masked != "hf_...111" {
		t.Errorf("HF masked: got %q, want %q", keys[1].Masked, "hf_...111")
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() returned empty string")
	}
}
