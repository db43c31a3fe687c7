package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration. Keys are flat so each one maps directly to an
// environment variable of the same name, upper-cased (e.g. cookie_secret -> COOKIE_SECRET).
type Config struct {
	Server     ServerConfig     `mapstructure:",squash"`
	Admin      AdminConfig      `mapstructure:",squash"`
	Storage    StorageConfig    `mapstructure:",squash"`
	ImageCache ImageCacheConfig `mapstructure:",squash"`
	Uploads    UploadsConfig    `mapstructure:",squash"`
	Credential CredentialConfig `mapstructure:",squash"`
	Mail       MailConfig       `mapstructure:",squash"`
	Log        LogConfig        `mapstructure:",squash"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// Origin is the public base URL (scheme + host) used to build credential and detail links.
	Origin             string   `mapstructure:"origin"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type AdminConfig struct {
	Username     string        `mapstructure:"admin_username"`
	Password     string        `mapstructure:"admin_password"`
	CookieSecret string        `mapstructure:"cookie_secret"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	SessionTTL   time.Duration `mapstructure:"admin_session_ttl"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"storage_backend"` // memory|postgres
	DatabaseURL string `mapstructure:"database_url"`
}

type ImageCacheConfig struct {
	Backend  string        `mapstructure:"image_cache_backend"` // fs|redis|memory
	Dir      string        `mapstructure:"image_cache_dir"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"image_cache_ttl"`
}

type UploadsConfig struct {
	Dir string `mapstructure:"upload_dir"`
}

type CredentialConfig struct {
	LogoPath string `mapstructure:"logo_path"`
	QRSize   int    `mapstructure:"qr_size"`
}

type MailConfig struct {
	Notifier    string `mapstructure:"notifier"` // smtp|log
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"smtp_username"`
	Password    string `mapstructure:"smtp_password"`
	From        string `mapstructure:"mail_from"`
	DiscordLink string `mapstructure:"discord_link"`
	EventName   string `mapstructure:"event_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
}

// Load reads configuration with precedence: environment > config file > defaults.
// A .env file in the working directory is loaded into the environment first, if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.Origin = strings.TrimRight(cfg.Server.Origin, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default (even empty) so AutomaticEnv values reach Unmarshal.
	v.SetDefault("port", 8080)
	v.SetDefault("origin", "")
	v.SetDefault("cors_allowed_origins", []string{})

	v.SetDefault("admin_username", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("cookie_secret", "")
	v.SetDefault("cookie_secure", true)
	v.SetDefault("admin_session_ttl", "12h")

	v.SetDefault("storage_backend", "memory")
	v.SetDefault("database_url", "")

	v.SetDefault("image_cache_backend", "fs")
	v.SetDefault("image_cache_dir", "qr-cache")
	v.SetDefault("redis_url", "")
	v.SetDefault("image_cache_ttl", "0s")

	v.SetDefault("upload_dir", "uploads")

	v.SetDefault("logo_path", "")
	v.SetDefault("qr_size", 512)

	v.SetDefault("notifier", "smtp")
	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 465)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("mail_from", "")
	v.SetDefault("discord_link", "")
	v.SetDefault("event_name", "MinneHack")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Validate checks required values and backend-specific settings.
func (c *Config) Validate() error {
	var errs []error
	require := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, fmt.Errorf("%s is required", strings.ToUpper(key)))
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535"))
	}
	require("origin", c.Server.Origin)
	if c.Server.Origin != "" {
		if u, err := url.Parse(c.Server.Origin); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("ORIGIN must be an absolute http(s) URL"))
		}
	}

	require("admin_username", c.Admin.Username)
	require("admin_password", c.Admin.Password)
	if len(c.Admin.CookieSecret) < 16 {
		errs = append(errs, fmt.Errorf("COOKIE_SECRET must be at least 16 characters"))
	}
	if c.Admin.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("ADMIN_SESSION_TTL must be positive"))
	}

	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		require("database_url", c.Storage.DatabaseURL)
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.Storage.Backend))
	}

	switch c.ImageCache.Backend {
	case "memory":
	case "fs":
		require("image_cache_dir", c.ImageCache.Dir)
	case "redis":
		require("redis_url", c.ImageCache.RedisURL)
	default:
		errs = append(errs, fmt.Errorf("IMAGE_CACHE_BACKEND must be fs, redis or memory, got %q", c.ImageCache.Backend))
	}

	require("upload_dir", c.Uploads.Dir)
	if c.Credential.QRSize < 64 {
		errs = append(errs, fmt.Errorf("QR_SIZE must be at least 64"))
	}

	switch c.Mail.Notifier {
	case "log":
	case "smtp":
		require("smtp_host", c.Mail.SMTPHost)
		require("smtp_username", c.Mail.Username)
		require("smtp_password", c.Mail.Password)
		require("mail_from", c.Mail.From)
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER must be smtp or log, got %q", c.Mail.Notifier))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
