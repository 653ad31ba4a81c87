// Package config handles configuration loading for newspulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"     json:"fetch"`
	Annotator AnnotatorConfig `mapstructure:"annotator" yaml:"annotator" json:"annotator"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"       json:"llm"`
	Narration NarrationConfig `mapstructure:"narration" yaml:"narration" json:"narration"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"   json:"storage"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`
}

// FetchConfig holds news source settings.
type FetchConfig struct {
	Sources           []string `mapstructure:"sources"             yaml:"sources"             json:"sources"` // "bing", "rss"
	Limit             int      `mapstructure:"limit"               yaml:"limit"               json:"limit"`
	TimeoutSec        int      `mapstructure:"timeout_sec"         yaml:"timeout_sec"         json:"timeout_sec"`
	BingURL           string   `mapstructure:"bing_url"            yaml:"bing_url"            json:"bing_url"`
	RSSURL            string   `mapstructure:"rss_url"             yaml:"rss_url"             json:"rss_url"`
	UserAgent         string   `mapstructure:"user_agent"          yaml:"user_agent"          json:"user_agent"`
	CacheTTL          int      `mapstructure:"cache_ttl"           yaml:"cache_ttl"           json:"cache_ttl"` // seconds, 0 disables
	FullText          bool     `mapstructure:"full_text"           yaml:"full_text"           json:"full_text"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
}

// AnnotatorConfig selects and tunes the per-article models.
type AnnotatorConfig struct {
	Backend           string `mapstructure:"backend"             yaml:"backend"             json:"backend"` // "lexicon", "huggingface", "llm"
	Concurrency       int    `mapstructure:"concurrency"         yaml:"concurrency"         json:"concurrency"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxTopics         int    `mapstructure:"max_topics"          yaml:"max_topics"          json:"max_topics"`
	LabelScheme       string `mapstructure:"label_scheme"        yaml:"label_scheme"        json:"label_scheme"` // "sst2", "stars", "signed", "verbal"
	HFURL             string `mapstructure:"hf_url"              yaml:"hf_url"              json:"hf_url"`
	HFToken           string `mapstructure:"hf_token"            yaml:"hf_token"            json:"-"`
	HFSentimentModel  string `mapstructure:"hf_sentiment_model"  yaml:"hf_sentiment_model"  json:"hf_sentiment_model"`
	HFSummaryModel    string `mapstructure:"hf_summary_model"    yaml:"hf_summary_model"    json:"hf_summary_model"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary     string  `mapstructure:"primary"     yaml:"primary"     json:"primary"` // "openai", "ollama"
	OpenAIKey   string  `mapstructure:"openai_key"  yaml:"openai_key"  json:"-"`
	OpenAIURL   string  `mapstructure:"openai_url"  yaml:"openai_url"  json:"openai_url,omitempty"`
	OllamaURL   string  `mapstructure:"ollama_url"  yaml:"ollama_url"  json:"ollama_url"`
	Model       string  `mapstructure:"model"       yaml:"model"       json:"model"`
	OllamaModel string  `mapstructure:"ollama_model" yaml:"ollama_model" json:"ollama_model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"  json:"max_tokens"`
}

// NarrationConfig controls verdict translation and speech synthesis.
type NarrationConfig struct {
	Enabled      bool   `mapstructure:"enabled"       yaml:"enabled"       json:"enabled"`
	TargetLang   string `mapstructure:"target_lang"   yaml:"target_lang"   json:"target_lang"`
	TranslateURL string `mapstructure:"translate_url" yaml:"translate_url" json:"translate_url"`
	TTSURL       string `mapstructure:"tts_url"       yaml:"tts_url"       json:"tts_url"`
}

// StorageConfig selects where reports and audio artifacts live.
type StorageConfig struct {
	AudioBackend  string `mapstructure:"audio_backend"  yaml:"audio_backend"  json:"audio_backend"`  // "memory", "redis"
	ReportBackend string `mapstructure:"report_backend" yaml:"report_backend" json:"report_backend"` // "memory", "postgres"
	RedisAddr     string `mapstructure:"redis_addr"     yaml:"redis_addr"     json:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password" json:"-"`
	PostgresDSN   string `mapstructure:"postgres_dsn"   yaml:"postgres_dsn"   json:"-"`
	AudioTTL      int    `mapstructure:"audio_ttl"      yaml:"audio_ttl"      json:"audio_ttl"` // seconds
	MaxReports    int    `mapstructure:"max_reports"    yaml:"max_reports"    json:"max_reports"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host           string   `mapstructure:"host"            yaml:"host"            json:"host"`
	Port           int      `mapstructure:"port"            yaml:"port"            json:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"    yaml:"cors_origins"    json:"cors_origins"`
	RequestTimeout int      `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
	File   string `mapstructure:"file"   yaml:"file"   json:"file,omitempty"`
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c FetchConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Timeout returns the end-to-end request deadline.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Addr returns host:port for the HTTP listener.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newspulse/config.yaml (home directory)
//  3. /etc/newspulse/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: NEWSPULSE_<SECTION>_<KEY>, e.g., NEWSPULSE_FETCH_LIMIT
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newspulse"))
	v.AddConfigPath("/etc/newspulse")

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("NEWSPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadDotEnv loads ./.env if it exists. Existing env vars win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Fetch defaults
	v.SetDefault("fetch.sources", []string{"bing", "rss"})
	v.SetDefault("fetch.limit", 10)
	v.SetDefault("fetch.timeout_sec", 15)
	v.SetDefault("fetch.bing_url", "https://www.bing.com/news/search")
	v.SetDefault("fetch.rss_url", "https://news.google.com/rss/search")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	v.SetDefault("fetch.cache_ttl", 300) // 5 minutes
	v.SetDefault("fetch.full_text", false)
	v.SetDefault("fetch.requests_per_minute", 30)

	// Annotator defaults
	v.SetDefault("annotator.backend", "lexicon")
	v.SetDefault("annotator.concurrency", 4)
	v.SetDefault("annotator.requests_per_minute", 60)
	v.SetDefault("annotator.max_topics", 3)
	v.SetDefault("annotator.label_scheme", "sst2")
	v.SetDefault("annotator.hf_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("annotator.hf_sentiment_model", "distilbert-base-uncased-finetuned-sst-2-english")
	v.SetDefault("annotator.hf_summary_model", "facebook/bart-large-cnn")

	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.ollama_model", "qwen2.5:7b")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 512)

	// Narration defaults
	v.SetDefault("narration.enabled", true)
	v.SetDefault("narration.target_lang", "hi")
	v.SetDefault("narration.translate_url", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("narration.tts_url", "https://translate.google.com/translate_tts")

	// Storage defaults
	v.SetDefault("storage.audio_backend", "memory")
	v.SetDefault("storage.report_backend", "memory")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.audio_ttl", 3600)
	v.SetDefault("storage.max_reports", 100)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.request_timeout", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The conventional provider variable names are accepted alongside the prefixed ones.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv("NEWSPULSE_LLM_OPENAI_KEY", "OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := firstEnv("NEWSPULSE_ANNOTATOR_HF_TOKEN", "HF_API_TOKEN"); key != "" {
		cfg.Annotator.HFToken = key
	}
	if dsn := firstEnv("NEWSPULSE_STORAGE_POSTGRES_DSN", "DATABASE_URL"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if pw := os.Getenv("NEWSPULSE_STORAGE_REDIS_PASSWORD"); pw != "" {
		cfg.Storage.RedisPassword = pw
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
