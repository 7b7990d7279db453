package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidStorageDriver        = errors.New("unknown storage driver")
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env           string        `mapstructure:"app_env"`
	BotToken      string        `mapstructure:"bot_token"`
	AdminID       int64         `mapstructure:"admin_id"`
	Storage       Storage       `mapstructure:",squash"`
	HTTP          HTTP          `mapstructure:",squash"`
	FeedbackDelay time.Duration `mapstructure:"feedback_delay"`
	ConfettiDelay time.Duration `mapstructure:"confetti_delay"`
}

type Storage struct {
	Driver        string `mapstructure:"storage_driver"`
	DBPath        string `mapstructure:"db_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// HTTP configures the JSON API. An empty Addr disables it.
type HTTP struct {
	Addr        string   `mapstructure:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from config/config.yaml when present and from
// environment variables, which take precedence.
func Load() (*Config, error) {
	return load(viper.New(), "./config")
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetDefault("app_env", "local")
	v.SetDefault("admin_id", 0)
	v.SetDefault("storage_driver", StorageSQLite)
	v.SetDefault("db_path", "quiz.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("http_addr", "")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("feedback_delay", "1500ms")
	v.SetDefault("confetti_delay", "3000ms")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("bot_token", "BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.HTTP.CORSOrigins = splitOrigins(v.GetStringSlice("cors_origins"))

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("%w: BOT_TOKEN", ErrMissingEnvironmentVariables)
	}
	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("%w: ADMIN_ID", ErrMissingEnvironmentVariables)
	}

	switch cfg.Storage.Driver {
	case StorageSQLite, StorageRedis:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStorageDriver, cfg.Storage.Driver)
	}

	return &cfg, nil
}

// splitOrigins accepts both YAML lists and a comma separated env value.
func splitOrigins(raw []string) []string {
	var origins []string
	for _, item := range raw {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}
