package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig      `mapstructure:"auth"`
	AI        AIConfig        `mapstructure:"ai"`
	LiveAudio LiveAudioConfig `mapstructure:"live_audio"`
	Storage   StorageConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Runtime flags set from the command line, not the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig carries the static shared secrets. There is no user store: one
// bearer token guards the API, one token guards the chunk webhook and one
// HMAC secret signs inbound email bodies.
type AuthConfig struct {
	BearerToken        string `mapstructure:"bearer_token"`
	WebhookToken       string `mapstructure:"webhook_token"`
	EmailWebhookSecret string `mapstructure:"email_webhook_secret"`
}

type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Fake           bool   `mapstructure:"fake"`
}

// LiveAudioConfig tunes the rolling transcription buffer. The defaults
// correspond to one second of 16 kHz 16-bit mono PCM.
type LiveAudioConfig struct {
	BufferThresholdBytes int `mapstructure:"buffer_threshold_bytes"`
	BytesPerSecond       int `mapstructure:"bytes_per_second"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func (c *AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("NOTED")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Shared secrets
	viper.BindEnv("auth.bearer_token", "API_BEARER_TOKEN")
	viper.BindEnv("auth.webhook_token", "WEBHOOK_TOKEN")
	viper.BindEnv("auth.email_webhook_secret", "AGENTMAIL_WEBHOOK_SECRET")

	// Model provider
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")
	viper.BindEnv("ai.timeout_seconds", "AI_TIMEOUT_SECONDS")
	viper.BindEnv("ai.fake", "DEV_FAKE_LLM")

	// Live audio
	viper.BindEnv("live_audio.buffer_threshold_bytes", "LIVE_AUDIO_BUFFER_THRESHOLD_BYTES")
	viper.BindEnv("live_audio.bytes_per_second", "LIVE_AUDIO_BYTES_PER_SECOND")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.LiveAudio.BufferThresholdBytes <= 0 {
		cfg.LiveAudio.BufferThresholdBytes = 16000
	}
	if cfg.LiveAudio.BytesPerSecond <= 0 {
		cfg.LiveAudio.BytesPerSecond = 32000
	}

	if cfg.Server.Mode == "release" {
		if len(cfg.Auth.BearerToken) < 16 {
			return nil, fmt.Errorf("auth.bearer_token is too short (%d chars), must be at least 16 characters in release mode", len(cfg.Auth.BearerToken))
		}
		if len(cfg.Auth.WebhookToken) < 16 {
			return nil, fmt.Errorf("auth.webhook_token is too short (%d chars), must be at least 16 characters in release mode", len(cfg.Auth.WebhookToken))
		}
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
