package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "sk-...abc"
}

// CheckAPIKeys returns the status of every secret the pipeline can use.
// None of them is mandatory: the lexicon annotator and in-memory stores run without keys.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("OpenAI API Key", cfg.LLM.OpenAIKey, "NEWSPULSE_LLM_OPENAI_KEY", "OPENAI_API_KEY"),
		checkKey("Hugging Face Token", cfg.Annotator.HFToken, "NEWSPULSE_ANNOTATOR_HF_TOKEN", "HF_API_TOKEN"),
		checkKey("Postgres DSN", cfg.Storage.PostgresDSN, "NEWSPULSE_STORAGE_POSTGRES_DSN", "DATABASE_URL"),
		checkKey("Redis Password", cfg.Storage.RedisPassword, "NEWSPULSE_STORAGE_REDIS_PASSWORD"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value == "" {
		status.Source = KeySourceNone
		return status
	}

	status.Source = KeySourceConfig
	for _, e := range envVars {
		if os.Getenv(e) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
