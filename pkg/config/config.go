package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "COMPLAINTS"

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Sentiment  SentimentConfig
	LLM        LLMConfig
	Breaker    BreakerConfig
	Validation ValidationConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins string
	IsDevelopment  bool
}

type SQLiteConfig struct {
	Path          string
	BusyTimeoutMs int
}

// SentimentConfig points at the APILayer-compatible sentiment endpoint.
type SentimentConfig struct {
	URL        string
	APIKey     string
	TimeoutSec int
}

type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	TimeoutSec int
	Language   string
}

type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	FailureThreshold uint32
	SuccessThreshold uint32
	OpenTimeoutSec   int
}

type ValidationConfig struct {
	MaxTextLength   int
	MaxStatusLength int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func (c SentimentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c BreakerConfig) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutSec) * time.Second
}

// Load reads .env (if present), config.yaml (if present) and the environment.
// Missing API keys are not an error: the classifiers fall back instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/complaints")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// bindLegacyEnv keeps the variable names the service has always been deployed with.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"sentiment.apiKey": "APILAYER_KEY",
		"llm.apiKey":       "OPENAI_API_KEY",
		"sqlite.path":      "DATABASE_PATH",
	}

	for key, legacy := range bindings {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", "*")
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("sqlite.path", "./complaints.db")
	v.SetDefault("sqlite.busyTimeoutMs", 5000)

	v.SetDefault("sentiment.url", "https://api.apilayer.com/sentiment/analysis")
	v.SetDefault("sentiment.timeoutSec", 5)

	v.SetDefault("llm.baseURL", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-3.5-turbo")
	v.SetDefault("llm.maxTokens", 5)
	v.SetDefault("llm.timeoutSec", 5)
	v.SetDefault("llm.language", "ru")

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.maxRequests", 1)
	v.SetDefault("breaker.failureThreshold", 5)
	v.SetDefault("breaker.successThreshold", 1)
	v.SetDefault("breaker.openTimeoutSec", 30)

	v.SetDefault("validation.maxTextLength", 5000)
	v.SetDefault("validation.maxStatusLength", 64)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
