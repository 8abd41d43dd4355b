package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                int           `mapstructure:"port"`
	Address             string        `mapstructure:"address"`
	LogLevel            string        `mapstructure:"log_level"`
	LogJSON             bool          `mapstructure:"log_json"`
	DatabaseDriver      string        `mapstructure:"database_driver"`
	DatabasePath        string        `mapstructure:"database_path"`
	DatabaseURL         string        `mapstructure:"database_url"`
	SessionSecret       string        `mapstructure:"session_secret"`
	SessionTTL          time.Duration `mapstructure:"session_ttl"`
	CookieSecure        bool          `mapstructure:"cookie_secure"`
	TrustedProxies      []string      `mapstructure:"trusted_proxies"`
	CORSAllowedOrigins  []string      `mapstructure:"cors_allowed_origins"`
	RateLimitCount      int           `mapstructure:"rate_limit_count"`
	RateLimitWindow     time.Duration `mapstructure:"rate_limit_window"`
	CollectStoreTimeout time.Duration `mapstructure:"collect_store_timeout"`
	JanitorInterval     time.Duration `mapstructure:"janitor_interval"`
	AdminEmail          string        `mapstructure:"admin_email"`
	AdminPassword       string        `mapstructure:"admin_password"`
	SMTPHost            string        `mapstructure:"smtp_host"`
	SMTPPort            int           `mapstructure:"smtp_port"`
	SMTPUsername        string        `mapstructure:"smtp_username"`
	SMTPPassword        string        `mapstructure:"smtp_password"`
	SMTPFrom            string        `mapstructure:"smtp_from"`
	AppURL              string        `mapstructure:"app_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("address", "0.0.0.0")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", "signupvault.db")
	v.SetDefault("database_url", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("trusted_proxies", []string{})
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("rate_limit_count", 30)
	v.SetDefault("rate_limit_window", time.Minute)
	v.SetDefault("collect_store_timeout", 10*time.Second)
	v.SetDefault("janitor_interval", 10*time.Minute)
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "no-reply@signupvault.com")
	v.SetDefault("app_url", "http://localhost:3000")
}

// Load reads defaults, then an optional signupvault.{yaml,json,toml} file from the
// working directory, then environment variables (PORT, DATABASE_PATH, ...).
func Load() (Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("signupvault")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return Config{}, err
	}

	var config Config

	err = v.Unmarshal(&config)

	if err != nil {
		return Config{}, err
	}

	err = config.Validate()

	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session_secret must be set")
	}

	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return errors.New("database_driver must be sqlite or postgres")
	}

	if c.DatabaseDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required for the postgres driver")
	}

	if c.RateLimitCount <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit count and window must be positive")
	}

	if c.JanitorInterval <= 0 || c.CollectStoreTimeout <= 0 {
		return errors.New("janitor_interval and collect_store_timeout must be positive")
	}

	return nil
}
