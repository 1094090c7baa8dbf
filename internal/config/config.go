package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Webhook   WebhookConfig
	Clipper   ClipperConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PublicURL       string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
	Path     string // sqlite database file
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	URLExpiry       time.Duration
}

// QueueConfig holds message broker configuration for pipeline events
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
	Exchange string
}

// WebhookConfig holds HTTP endpoints notified of pipeline events
type WebhookConfig struct {
	Enabled     bool
	URLs        []string
	Secret      string
	Events      []string
	Timeout     time.Duration
	MaxAttempts int
}

// ClipperConfig holds acquisition and extraction configuration
type ClipperConfig struct {
	WorkDir         string
	MaxClipDuration float64
	RequestTimeout  time.Duration
	ClipRetention   time.Duration
	CleanupInterval time.Duration
	MinClipBytes    int64

	YtdlpPath   string
	FFmpegPath  string
	FFprobePath string

	PrimaryAuthContext   string
	FallbackAuthContexts []string
	UserAgent            string
	BotSignatures        []string

	PrimarySleepMin    int
	PrimarySleepMax    int
	FallbackSleepMin   int
	FallbackSleepMax   int
	LastResortSleepMin int
	LastResortSleepMax int

	VideoBitrate string
	AudioBitrate string
	Preset       string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TracingConfig holds Jaeger tracing configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

// MetricsConfig holds Prometheus metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Enabled bool
	RPS     int
	Burst   int
}

// AuthConfig holds optional JWT authentication configuration
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YTCLIPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks invariants the pipeline relies on
func (c *Config) Validate() error {
	var errs []error

	if c.Clipper.WorkDir == "" {
		errs = append(errs, errors.New("clipper.workDir must be set"))
	}
	if c.Clipper.MaxClipDuration <= 0 {
		errs = append(errs, errors.New("clipper.maxClipDuration must be positive"))
	}
	if c.Clipper.PrimarySleepMax < c.Clipper.PrimarySleepMin ||
		c.Clipper.FallbackSleepMax < c.Clipper.FallbackSleepMin ||
		c.Clipper.LastResortSleepMax < c.Clipper.LastResortSleepMin {
		errs = append(errs, errors.New("clipper sleep max must not be below sleep min"))
	}
	switch c.Database.Driver {
	case "postgres":
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path must be set for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Webhook.Enabled && len(c.Webhook.URLs) == 0 {
		errs = append(errs, errors.New("webhook.urls must be set when webhooks are enabled"))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret must be set when auth is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "10m")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.publicURL", "")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "youtube_clipper")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 2)
	v.SetDefault("database.path", "uploads/ytclipper.db")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTTL", "15m")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "clips")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.urlExpiry", "1h")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")
	v.SetDefault("queue.exchange", "ytclipper.events")

	// Webhook defaults
	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.urls", []string{})
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.events", []string{})
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.maxAttempts", 4)

	// Clipper defaults
	v.SetDefault("clipper.workDir", "uploads")
	v.SetDefault("clipper.maxClipDuration", 3600)
	v.SetDefault("clipper.requestTimeout", "15m")
	v.SetDefault("clipper.clipRetention", "1h")
	v.SetDefault("clipper.cleanupInterval", "30s")
	v.SetDefault("clipper.minClipBytes", 1024)
	v.SetDefault("clipper.ytdlpPath", "yt-dlp")
	v.SetDefault("clipper.ffmpegPath", "ffmpeg")
	v.SetDefault("clipper.ffprobePath", "ffprobe")
	v.SetDefault("clipper.primaryAuthContext", "chrome")
	v.SetDefault("clipper.fallbackAuthContexts", []string{"firefox", "edge", "safari"})
	v.SetDefault("clipper.userAgent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("clipper.botSignatures", []string{"Sign in to confirm you're not a bot", "cookies"})
	v.SetDefault("clipper.primarySleepMin", 1)
	v.SetDefault("clipper.primarySleepMax", 3)
	v.SetDefault("clipper.fallbackSleepMin", 2)
	v.SetDefault("clipper.fallbackSleepMax", 5)
	v.SetDefault("clipper.lastResortSleepMin", 3)
	v.SetDefault("clipper.lastResortSleepMax", 8)
	v.SetDefault("clipper.videoBitrate", "2500k")
	v.SetDefault("clipper.audioBitrate", "128k")
	v.SetDefault("clipper.preset", "veryfast")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "ytclipper")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.sampleRate", 1.0)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 2)
	v.SetDefault("rateLimit.burst", 5)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwtSecret", "")
}
