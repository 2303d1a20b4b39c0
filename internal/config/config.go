package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Admin     AdminConfig     `koanf:"admin"`
	Log       LogConfig       `koanf:"log"`
	Seed      SeedConfig      `koanf:"seed"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type AppConfig struct {
	Name string `koanf:"name"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustedProxy makes the login limiter key on forwarding headers. Only
	// enable it behind a proxy that overwrites them.
	TrustedProxy bool `koanf:"trusted_proxy"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type SecurityConfig struct {
	SecretKey    string        `koanf:"secret_key"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// AdminConfig controls the admin surface. Mount is the URL prefix every
// admin view lives under; RequiredRole is the only role granted access.
type AdminConfig struct {
	Mount        string `koanf:"mount"`
	RequiredRole string `koanf:"required_role"`
	PageSize     int    `koanf:"page_size"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SeedConfig struct {
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

type RateLimitConfig struct {
	LoginRequests int           `koanf:"login_requests"`
	LoginWindow   time.Duration `koanf:"login_window"`
	LoginBurst    int           `koanf:"login_burst"`
}

// Load builds the configuration from defaults, then the YAML file at
// configPath (skipped when empty), then environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Admin.Mount = strings.TrimRight(cfg.Admin.Mount, "/")

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name": "Chore Dashboard",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "5s",
		"server.write_timeout":    "10s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "5s",
		"server.trusted_proxy":    false,

		"database.path": "choreadmin.db",

		"security.session_ttl":    "720h",
		"security.cookie_secure": false,

		"admin.mount":         "/admin",
		"admin.required_role": "superuser",
		"admin.page_size":     20,

		"log.level":  "info",
		"log.format": "text",

		"seed.admin_email":    "admin@example.com",
		"seed.admin_password": "admin",

		"rate_limit.login_requests": 10,
		"rate_limit.login_window":   "1m",
		"rate_limit.login_burst":    10,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"CHOREADMIN_HOST":           "server.host",
	"CHOREADMIN_PORT":           "server.port",
	"CHOREADMIN_TRUSTED_PROXY":  "server.trusted_proxy",
	"CHOREADMIN_DB_PATH":        "database.path",
	"CHOREADMIN_SECRET_KEY":     "security.secret_key",
	"CHOREADMIN_SESSION_TTL":    "security.session_ttl",
	"CHOREADMIN_COOKIE_SECURE":  "security.cookie_secure",
	"CHOREADMIN_ADMIN_MOUNT":    "admin.mount",
	"CHOREADMIN_LOG_LEVEL":      "log.level",
	"CHOREADMIN_LOG_FORMAT":     "log.format",
	"CHOREADMIN_ADMIN_EMAIL":    "seed.admin_email",
	"CHOREADMIN_ADMIN_PASSWORD": "seed.admin_password",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Security.SecretKey == "" {
		return fmt.Errorf("CHOREADMIN_SECRET_KEY is required")
	}

	if c.Admin.Mount == "" || !strings.HasPrefix(c.Admin.Mount, "/") {
		return fmt.Errorf("admin.mount must start with '/' and not be the site root")
	}

	if c.Admin.RequiredRole == "" {
		return fmt.Errorf("admin.required_role is required")
	}

	if c.Admin.PageSize <= 0 {
		return fmt.Errorf("admin.page_size must be positive")
	}

	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.session_ttl must be positive")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
