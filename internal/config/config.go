package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Provider selects the completion backend.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Server       ServerConfig
	Hume         HumeConfig
	LLM          LLMConfig
	JWT          JWTConfig
	Conversation ConversationConfig
	Cache        CacheConfig
	Mongo        MongoConfig
	Taxonomy     TaxonomyConfig
}

type ServerConfig struct {
	Host string
	Port int
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type HumeConfig struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type LLMConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
	ContextWindow int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type ConversationConfig struct {
	Capacity int
}

type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

type TaxonomyConfig struct {
	Path string
}

// Load reads configuration from an optional .env file and the process
// environment, applies defaults, and validates that every required
// credential is present. A missing credential is a startup failure; the
// process must refuse to run with partial configuration.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Hume: HumeConfig{
			APIKey:    k.String("hume.api.key"),
			SecretKey: k.String("hume.secret.key"),
			BaseURL:   k.String("hume.base.url"),
		},
		LLM: LLMConfig{
			Provider:      k.String("llm.provider"),
			OpenAIKey:     k.String("openai.api.key"),
			OpenAIModel:   k.String("openai.model"),
			GeminiKey:     k.String("gemini.api.key"),
			GeminiModel:   k.String("gemini.model"),
			ContextWindow: k.Int("llm.context.window"),
		},
		JWT: JWTConfig{
			Secret: k.String("jwt.secret"),
		},
		Conversation: ConversationConfig{
			Capacity: k.Int("conversation.capacity"),
		},
		Cache: CacheConfig{
			MaxSize: k.Int("cache.max.size"),
		},
		Mongo: MongoConfig{
			URI:      k.String("mongo.uri"),
			Database: k.String("mongo.database"),
		},
		Taxonomy: TaxonomyConfig{
			Path: k.String("taxonomy.path"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.Conversation.Capacity == 0 {
		cfg.Conversation.Capacity = 200
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "conversations"
	}
	if cfg.Taxonomy.Path == "" {
		cfg.Taxonomy.Path = "config/emotions.yaml"
	}

	// Parse durations
	cfg.Hume.Timeout, err = parseDuration(k, "hume.timeout", "10s")
	if err != nil {
		return nil, err
	}
	cfg.LLM.Timeout, err = parseDuration(k, "llm.timeout", "30s")
	if err != nil {
		return nil, err
	}
	cfg.JWT.Expiry, err = parseDuration(k, "jwt.expiry", "24h")
	if err != nil {
		return nil, err
	}
	cfg.Cache.TTL, err = parseDuration(k, "cache.ttl", "1h")
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(k *koanf.Koanf, key, fallback string) (time.Duration, error) {
	raw := k.String(key)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Hume.APIKey == "" {
		missing = append(missing, "HUME_API_KEY")
	}
	if c.Hume.SecretKey == "" {
		missing = append(missing, "HUME_SECRET_KEY")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.LLM.GeminiKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
