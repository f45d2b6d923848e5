package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderClaude      = "claude"
	ProviderMock        = "mock"
)

type Config struct {
	Server        ServerConfig
	Rewriter      RewriterConfig
	HuggingFace   HuggingFaceConfig
	OpenAI        OpenAIConfig
	Gemini        GeminiConfig
	Claude        ClaudeConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	GoogleService GoogleServiceConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Debug       bool
	CorsOrigins []string
}

type RewriterConfig struct {
	Provider string
	Timeout  time.Duration
}

type HuggingFaceConfig struct {
	BaseUrl   string
	Model     string
	Tokenizer string
	Token     string
}

type OpenAIConfig struct {
	BaseUrl string
	Key     string
	Model   string
}

type GeminiConfig struct {
	Key   string
	Model string
}

type ClaudeConfig struct {
	Key   string
	Model string
}

type CacheConfig struct {
	Ttl             time.Duration
	CleanupInterval time.Duration
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type GoogleServiceConfig struct {
	ProjectId    string
	JsonKey      string
	PushInterval time.Duration
}

type LogConfig struct {
	Level string
}

// Addr is the listen address of the web server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.corsOrigins", []string{})

	v.SetDefault("rewriter.provider", ProviderHuggingFace)
	v.SetDefault("rewriter.timeout", 120*time.Second)

	v.SetDefault("huggingFace.baseUrl", "https://api-inference.huggingface.co/models")
	v.SetDefault("huggingFace.model", "microsoft/Promptist")
	v.SetDefault("huggingFace.tokenizer", "gpt2")
	v.SetDefault("huggingFace.token", "")

	v.SetDefault("openAI.baseUrl", "http://localhost:8000/v1")
	v.SetDefault("openAI.key", "")
	v.SetDefault("openAI.model", "microsoft/Promptist")

	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("claude.key", "")
	v.SetDefault("claude.model", "claude-3-haiku-20240307")

	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.cleanupInterval", 15*time.Minute)

	v.SetDefault("rateLimit.perSecond", 0.0)
	v.SetDefault("rateLimit.burst", 0)

	v.SetDefault("googleService.projectId", "")
	v.SetDefault("googleService.jsonKey", "")
	v.SetDefault("googleService.pushInterval", 60*time.Second)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads <configName>.yaml from the working directory. A missing
// file is fine: every key has a default and can be set from the environment,
// e.g. SERVER_PORT or REWRITER_PROVIDER.
func LoadConfig(configName string, paths ...string) (*Config, error) {
	var config Config

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Rewriter.Provider {
	case ProviderHuggingFace, ProviderOpenAI, ProviderGemini, ProviderClaude, ProviderMock:
	default:
		return fmt.Errorf("unsupported rewriter provider %q", c.Rewriter.Provider)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Rewriter.Timeout < 0 {
		return fmt.Errorf("rewriter timeout must not be negative")
	}

	if c.RateLimit.PerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	return nil
}
