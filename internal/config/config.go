package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AdminDefaults struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type PasswordRequirements struct {
	MinLength        int  `yaml:"min_length"`
	RequireUppercase bool `yaml:"require_uppercase"`
	RequireNumbers   bool `yaml:"require_numbers"`
	RequireSpecial   bool `yaml:"require_special_chars"`
}

type Security struct {
	// All durations are seconds, matching the values existing deployments
	// already carry in their config files.
	SessionTimeout     int    `yaml:"session_timeout"`
	MaxLoginAttempts   int    `yaml:"max_login_attempts"`
	LockDuration       int    `yaml:"lock_duration"`
	RememberMeDuration int    `yaml:"remember_me_duration"`
	TokenSecret        string `yaml:"token_secret"`
}

func (s Security) SessionTimeoutDuration() time.Duration {
	return time.Duration(s.SessionTimeout) * time.Second
}

func (s Security) LockDurationDuration() time.Duration {
	return time.Duration(s.LockDuration) * time.Second
}

func (s Security) RememberMeDurationDuration() time.Duration {
	return time.Duration(s.RememberMeDuration) * time.Second
}

type Config struct {
	Port        int    `yaml:"port"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	Admin    AdminDefaults        `yaml:"admin_defaults"`
	Password PasswordRequirements `yaml:"password_requirements"`
	Security Security             `yaml:"security"`
}

// Default credentials are a bootstrap convenience and must be rotated on
// first login; they are not a secret.
func Default() Config {
	return Config{
		Port:      8080,
		DataDir:   "data",
		LogLevel:  "info",
		LogFormat: "text",
		Admin: AdminDefaults{
			Username:  "admin",
			Password:  "admin123",
			Email:     "admin@nananom-farms.com",
			FirstName: "Admin",
			LastName:  "User",
		},
		Password: PasswordRequirements{
			MinLength: 6,
		},
		Security: Security{
			SessionTimeout:     3600,
			MaxLoginAttempts:   5,
			LockDuration:       900,
			RememberMeDuration: 2592000,
		},
	}
}

// Load reads the yaml config file when present and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("SITE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("SITE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SITE_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("SITE_TOKEN_SECRET"); v != "" {
		cfg.Security.TokenSecret = v
	}
	if v := os.Getenv("SITE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SITE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg, nil
}

func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}
