package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when the selected hosted provider has no
// API key configured.
var ErrMissingAPIKey = errors.New("selected provider requires an API key")

// Load builds the application configuration from defaults, an optional
// `ankigen.yaml` in the working directory, and environment variables with
// the ANKIGEN_ prefix (e.g. ANKIGEN_PROVIDER, ANKIGEN_OPENAI_API_KEY).
// Environment variables take precedence over file values, which take
// precedence over defaults. The result is validated before being returned.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("ankigen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default or an
		// environment override. Any other read error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ANKIGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOllama)

	v.SetDefault("log.level", "info")
	v.SetDefault("output.dir", "output")

	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")

	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.model", "meta-llama/llama-3.2-3b-instruct:free")

	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay_seconds", 2)
	v.SetDefault("generation.temperature", 0.3)
	v.SetDefault("generation.max_tokens", 2048)
	v.SetDefault("generation.cards_per_section", 5)
	v.SetDefault("generation.min_card_quality", 0.7)
	v.SetDefault("generation.section_max_tokens", 1500)
	v.SetDefault("generation.worker_count", 3)
}

// validate checks struct tags and the cross-field rules the tags cannot
// express: hosted providers need their API key present.
func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}
	case ProviderOpenRouter:
		if cfg.OpenRouter.APIKey == "" {
			return fmt.Errorf("%w: openrouter", ErrMissingAPIKey)
		}
	}

	return nil
}
