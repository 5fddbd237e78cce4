package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and
// environment variables. All env keys carry the RADAR_ prefix.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	PublishableKey string `mapstructure:"publishable_key"`
	Host           string `mapstructure:"host"`
	UserID         string `mapstructure:"user_id"`
	Description    string `mapstructure:"description"`
	PlacesProvider string `mapstructure:"places_provider"`

	StoreType string `mapstructure:"store_type"`
	BBoltPath string `mapstructure:"bbolt_path"`

	SinksFile string `mapstructure:"sinks_file"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	TrackAddress   string  `mapstructure:"track_address"`
	TrackLatitude  float64 `mapstructure:"track_latitude"`
	TrackLongitude float64 `mapstructure:"track_longitude"`
	TrackAccuracy  float64 `mapstructure:"track_accuracy"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "radar-go")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("publishable_key", "")
	v.SetDefault("host", "")
	v.SetDefault("user_id", "")
	v.SetDefault("description", "")
	v.SetDefault("places_provider", "")
	v.SetDefault("store_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/settings.db")
	v.SetDefault("sinks_file", "")
	v.SetDefault("request_timeout_seconds", 10)
	v.SetDefault("track_address", "")
	v.SetDefault("track_latitude", 0)
	v.SetDefault("track_longitude", 0)
	v.SetDefault("track_accuracy", 0)

	v.SetEnvPrefix("radar")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	return &cfg, nil
}
