package config

// Provider names accepted by the gateway. The set is closed: the provider
// is selected once at startup and every other value is a configuration
// error, not a retryable condition.
const (
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// Config holds all application configuration.
// It is constructed once by Load at process start and treated as
// read-only afterwards; no component reads the environment directly.
type Config struct {
	// Provider selects which LLM backend the gateway talks to.
	Provider string `mapstructure:"provider" validate:"required,oneof=ollama openai openrouter"`

	Log        LogConfig        `mapstructure:"log"`
	Output     OutputConfig     `mapstructure:"output"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// OutputConfig contains export output settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// OllamaConfig contains settings for the local Ollama daemon backend.
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Model   string `mapstructure:"model" validate:"required"`
}

// OpenAIConfig contains settings for the hosted OpenAI chat backend.
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model" validate:"required"`
}

// OpenRouterConfig contains settings for the hosted OpenRouter
// aggregator backend.
type OpenRouterConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model" validate:"required"`
}

// GenerationConfig contains the shared retry policy and the card
// generation tuning knobs.
type GenerationConfig struct {
	// MaxRetries is the total number of attempts for a provider call.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=1"`

	// RetryDelaySeconds is the base delay for linear backoff between
	// attempts (delay = base * attempt number).
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`

	// CardsPerSection is the number of cards the model is asked to
	// produce per section of text.
	CardsPerSection int `mapstructure:"cards_per_section" validate:"gt=0"`

	// MinCardQuality is the acceptance threshold for the LLM-judged
	// quality score, in [0,1].
	MinCardQuality float64 `mapstructure:"min_card_quality" validate:"gte=0,lte=1"`

	// SectionMaxTokens is the estimated token budget for a single
	// section of source text.
	SectionMaxTokens int `mapstructure:"section_max_tokens" validate:"gt=0"`

	// WorkerCount is the number of sections processed concurrently.
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
}
