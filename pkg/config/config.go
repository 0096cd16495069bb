package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "mediakit"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Media   MediaConfig
	Redis   RedisConfig
	Journal JournalConfig
	Server  ServerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// envconfig accepts a set-but-empty required variable; a blank base
	// URL is just as unusable as a missing one.
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil, fmt.Errorf("parsing config: MEDIAKIT_API_BASE_URL is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEDIAKIT_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"MEDIAKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIAKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the transfer coordinator at the marketplace backend.
type APIConfig struct {
	BaseURL        string        `envconfig:"MEDIAKIT_API_BASE_URL" required:"true"`
	Token          string        `envconfig:"MEDIAKIT_API_TOKEN"`
	RequestTimeout time.Duration `envconfig:"MEDIAKIT_API_REQUEST_TIMEOUT" default:"30s"`
	UploadTimeout  time.Duration `envconfig:"MEDIAKIT_API_UPLOAD_TIMEOUT" default:"5m"`
}

// MediaConfig carries the default per-scope upload limits. Callers can
// override any of these per UploadConfig.
type MediaConfig struct {
	MaxFiles      int           `envconfig:"MEDIAKIT_MEDIA_MAX_FILES" default:"20"`
	MaxSizeMB     int64         `envconfig:"MEDIAKIT_MEDIA_MAX_SIZE_MB" default:"10"`
	AcceptedTypes []string      `envconfig:"MEDIAKIT_MEDIA_ACCEPTED_TYPES" default:"image/jpeg,image/png,image/webp"`
	ProgressHold  time.Duration `envconfig:"MEDIAKIT_MEDIA_PROGRESS_HOLD" default:"750ms"`
}

// RedisConfig is only consulted when a cross-process scope lock is wanted.
type RedisConfig struct {
	URL          string        `envconfig:"MEDIAKIT_REDIS_URL"`
	Address      string        `envconfig:"MEDIAKIT_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIAKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIAKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIAKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIAKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIAKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIAKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIAKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"MEDIAKIT_REDIS_LOCK_TTL" default:"30s"`
}

// Enabled reports whether a redis-backed scope lock was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JournalConfig struct {
	Path string `envconfig:"MEDIAKIT_JOURNAL_PATH"`
}

// Enabled reports whether the local operation journal was configured.
func (j JournalConfig) Enabled() bool {
	return j.Path != ""
}

// ServerConfig configures the local stub backend (cmd/mediaserver).
type ServerConfig struct {
	Port        string   `envconfig:"MEDIAKIT_SERVER_PORT" default:"8090"`
	CORSOrigins []string `envconfig:"MEDIAKIT_SERVER_CORS_ORIGINS" default:"*"`
}
