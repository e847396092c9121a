package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/casimadrid/casi-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Text      TextConfig      `yaml:"text" mapstructure:"text"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Ledger    LedgerConfig    `yaml:"ledger" mapstructure:"ledger"`
	Content   ContentConfig   `yaml:"content" mapstructure:"content"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Refine    RefineConfig    `yaml:"refine" mapstructure:"refine"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	LanguageCode string  `yaml:"language_code" mapstructure:"language_code"`
	MaxResults   int     `yaml:"max_results" mapstructure:"max_results"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TextConfig selects and guards the text-generation provider.
type TextConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	BreakerThreshold  int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs  int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LedgerConfig locates the two ledger files.
type LedgerConfig struct {
	IngestPath string `yaml:"ingest_path" mapstructure:"ingest_path"`
	RefinePath string `yaml:"refine_path" mapstructure:"refine_path"`
}

// ContentConfig locates the venue record files.
type ContentConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	DefaultQuery        string  `yaml:"default_query" mapstructure:"default_query"`
	Author              string  `yaml:"author" mapstructure:"author"`
	DefaultNeighborhood string  `yaml:"default_neighborhood" mapstructure:"default_neighborhood"`
	MaxAttempts         int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	DuplicateRatio      float64 `yaml:"duplicate_ratio" mapstructure:"duplicate_ratio"`
	MinNew              int     `yaml:"min_new" mapstructure:"min_new"`
	KnownNames          int     `yaml:"known_names" mapstructure:"known_names"`
}

// RefineConfig configures the refinement pipeline.
type RefineConfig struct {
	DelaySecs   int            `yaml:"delay_secs" mapstructure:"delay_secs"`
	Temperature float64        `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int            `yaml:"max_tokens" mapstructure:"max_tokens"`
	Authors     []AuthorWeight `yaml:"authors" mapstructure:"authors"`
}

// Delay returns the pause between refined files.
func (r RefineConfig) Delay() time.Duration {
	return time.Duration(r.DelaySecs) * time.Second
}

// AuthorWeight is one row of the refinement author table.
type AuthorWeight struct {
	Name   string  `yaml:"name" mapstructure:"name"`
	Weight float64 `yaml:"weight" mapstructure:"weight"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultAuthors is the refinement author table: one house voice at 40% and
// four contributors at 15% each.
func DefaultAuthors() []AuthorWeight {
	return []AuthorWeight{
		{Name: "Lucía Martín", Weight: 40},
		{Name: "Javier Ortega", Weight: 15},
		{Name: "Marta Quintana", Weight: 15},
		{Name: "Dani Robles", Weight: 15},
		{Name: "Carmen Vidal", Weight: 15},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("casi")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CASI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.language_code", "es")
	v.SetDefault("google.max_results", 20)
	v.SetDefault("google.rate_limit", 1.0)
	v.SetDefault("text.provider", "anthropic")
	v.SetDefault("text.requests_per_minute", 0)
	v.SetDefault("text.breaker_threshold", 5)
	v.SetDefault("text.breaker_reset_secs", 60)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("ledger.ingest_path", "data/ingest-ledger.json")
	v.SetDefault("ledger.refine_path", "data/refine-ledger.json")
	v.SetDefault("content.dir", "src/content/spots")
	v.SetDefault("ingest.default_query", "cafeterías para trabajar con portátil en Madrid")
	v.SetDefault("ingest.author", "Equipo Casi")
	v.SetDefault("ingest.default_neighborhood", "Centro")
	v.SetDefault("ingest.max_attempts", 3)
	v.SetDefault("ingest.duplicate_ratio", 0.5)
	v.SetDefault("ingest.min_new", 5)
	v.SetDefault("ingest.known_names", 15)
	v.SetDefault("refine.delay_secs", 600)
	v.SetDefault("refine.temperature", 0.7)
	v.SetDefault("refine.max_tokens", 1500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Refine.Authors) == 0 {
		cfg.Refine.Authors = DefaultAuthors()
	}

	return &cfg, nil
}

// Validate checks that the settings a command needs are present. Missing
// credentials are reported together as a ConfigurationError.
func (c *Config) Validate(command string) error {
	var missing []string

	textKey := func() {
		switch c.Text.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				missing = append(missing, "anthropic.key")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				missing = append(missing, "openai.key")
			}
		}
	}

	switch c.Text.Provider {
	case "anthropic", "openai":
	default:
		return &resilience.ConfigurationError{
			Setting: "text.provider",
			Reason:  `must be "anthropic" or "openai", got "` + c.Text.Provider + `"`,
		}
	}

	switch command {
	case "ingest":
		if c.Google.Key == "" {
			missing = append(missing, "google.key")
		}
		textKey()
		if c.Ingest.MaxAttempts < 1 {
			return &resilience.ConfigurationError{Setting: "ingest.max_attempts", Reason: "must be at least 1"}
		}
	case "refine":
		textKey()
		if c.Refine.DelaySecs < 0 {
			return &resilience.ConfigurationError{Setting: "refine.delay_secs", Reason: "must not be negative"}
		}
	}

	if len(missing) > 0 {
		return &resilience.ConfigurationError{
			Setting: strings.Join(missing, ", "),
			Reason:  "required",
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
