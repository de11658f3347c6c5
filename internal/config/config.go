package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	InternalPort string        `mapstructure:"internal_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig selects the save-store backend. "redis" is the production
// backend; "memory" runs the service without external dependencies.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
}

// DatabaseConfig contains the optional Postgres connection used for the
// high-score archive. Leave URL empty to keep scores in memory.
type DatabaseConfig struct {
	URL               string        `mapstructure:"url"`
	MaxConnections    int           `mapstructure:"max_connections"`
	MaxIdleTime       time.Duration `mapstructure:"max_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	PingTimeout       time.Duration `mapstructure:"ping_timeout"`
}

// AuthConfig contains session token configuration
type AuthConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenIssuer string        `mapstructure:"token_issuer"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// GameConfig contains the gameplay loop tuning knobs
type GameConfig struct {
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
	MaxOfflineCredit time.Duration `mapstructure:"max_offline_credit"`
	SessionIdleLimit time.Duration `mapstructure:"session_idle_limit"`
	HighScoreLimit   int           `mapstructure:"high_score_limit"`
	MaxSaveSlots     int           `mapstructure:"max_save_slots"`
}

// TimeoutsConfig contains various timeout configurations
type TimeoutsConfig struct {
	HTTPMiddleware   time.Duration `mapstructure:"http_middleware"`
	GracefulShutdown time.Duration `mapstructure:"graceful_shutdown"`
	StorageHealth    time.Duration `mapstructure:"storage_health"`
}

// MetricsConfig contains metrics collection configuration
type MetricsConfig struct {
	UpdateInterval time.Duration `mapstructure:"update_interval"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/idle-shapes")

	viper.SetEnvPrefix("IDLE_SVC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind environment variables for better reliability
	viper.BindEnv("redis.url", "IDLE_SVC_REDIS_URL")
	viper.BindEnv("database.url", "IDLE_SVC_DATABASE_URL")
	viper.BindEnv("server.port", "IDLE_SVC_SERVER_PORT")
	viper.BindEnv("server.internal_port", "IDLE_SVC_SERVER_INTERNAL_PORT")
	viper.BindEnv("auth.token_secret", "IDLE_SVC_AUTH_TOKEN_SECRET")
	viper.BindEnv("storage.backend", "IDLE_SVC_STORAGE_BACKEND")

	setDefaults()

	// Config file is optional, defaults plus env vars are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.internal_port", "8081")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")

	viper.SetDefault("storage.backend", "redis")

	viper.SetDefault("redis.max_connections", 10)
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.ping_timeout", "5s")

	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_time", "5m")
	viper.SetDefault("database.health_check_period", "1m")
	viper.SetDefault("database.ping_timeout", "5s")

	viper.SetDefault("auth.token_issuer", "idle-shapes")
	viper.SetDefault("auth.token_ttl", "168h")

	viper.SetDefault("logging.level", "info")

	viper.SetDefault("game.tick_interval", "250ms")
	viper.SetDefault("game.autosave_interval", "30s")
	viper.SetDefault("game.max_offline_credit", "72h")
	viper.SetDefault("game.session_idle_limit", "30m")
	viper.SetDefault("game.high_score_limit", 10)
	viper.SetDefault("game.max_save_slots", 20)

	viper.SetDefault("timeouts.http_middleware", "60s")
	viper.SetDefault("timeouts.graceful_shutdown", "30s")
	viper.SetDefault("timeouts.storage_health", "2s")

	viper.SetDefault("metrics.update_interval", "10s")
}

// Validate validates the configuration and ensures required fields are present
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret must be set (use environment variable IDLE_SVC_AUTH_TOKEN_SECRET)")
	}
	if c.Server.Port == "" || c.Server.InternalPort == "" {
		return fmt.Errorf("server.port and server.internal_port must be set")
	}

	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url must be set when storage.backend is redis (use environment variable IDLE_SVC_REDIS_URL)")
		}
	default:
		return fmt.Errorf("storage.backend must be 'redis' or 'memory', got %q", c.Storage.Backend)
	}

	timeouts := map[string]time.Duration{
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
		"game.tick_interval":     c.Game.TickInterval,
		"game.autosave_interval": c.Game.AutosaveInterval,
		"timeouts.storage_health": c.Timeouts.StorageHealth,
	}
	for name, timeout := range timeouts {
		if timeout <= 0 {
			return fmt.Errorf("timeout '%s' must be positive, got %v", name, timeout)
		}
		if timeout > 10*time.Minute {
			return fmt.Errorf("timeout '%s' seems too large, got %v", name, timeout)
		}
	}

	if c.Game.TickInterval < 50*time.Millisecond {
		return fmt.Errorf("game.tick_interval below 50ms burns CPU for no gameplay gain, got %v", c.Game.TickInterval)
	}
	if c.Game.MaxOfflineCredit < 0 {
		return fmt.Errorf("game.max_offline_credit cannot be negative, got %v", c.Game.MaxOfflineCredit)
	}
	if c.Game.HighScoreLimit <= 0 {
		return fmt.Errorf("game.high_score_limit must be positive, got %d", c.Game.HighScoreLimit)
	}
	if c.Game.MaxSaveSlots <= 0 {
		return fmt.Errorf("game.max_save_slots must be positive, got %d", c.Game.MaxSaveSlots)
	}
	if c.Redis.MaxConnections <= 0 {
		return fmt.Errorf("redis.max_connections must be positive, got %d", c.Redis.MaxConnections)
	}

	return nil
}
