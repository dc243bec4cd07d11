// Package config loads the service configuration from a YAML file with
// environment variable overrides.
//
// Values are resolved in this order, later wins:
//
//  1. Defaults()
//  2. the YAML file, when one is given
//  3. environment variables named by the `env` struct tag, including the
//     ones loaded from .env files (ENV_FILE, or .env.local then .env)
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/matst80/flow-finder/pkg/common"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Site names exchanges and cache keys so several sites can share a broker.
	Site     string         `yaml:"site" env:"SITE_NAME"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Content  ContentConfig  `yaml:"content"`
	Redis    RedisConfig    `yaml:"redis"`
	Rabbit   RabbitConfig   `yaml:"rabbit"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Auth     AuthConfig     `yaml:"auth"`
	Contact  ContactConfig  `yaml:"contact"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string               `yaml:"addr" env:"LISTEN_ADDR"`
	DebugAddr       string               `yaml:"debugAddr" env:"DEBUG_ADDR"`
	Profiling       bool                 `yaml:"profiling" env:"ENABLE_PROFILING"`
	AllowedOrigins  []string             `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS"`
	DefaultPageSize int                  `yaml:"defaultPageSize" env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int                  `yaml:"maxPageSize" env:"MAX_PAGE_SIZE"`
	CacheSeconds    int                  `yaml:"cacheSeconds" env:"CACHE_SECONDS"`
	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// header is believed.
	TrustedProxies  []string             `yaml:"trustedProxies" env:"TRUSTED_PROXIES"`
	Timeouts        common.TimeoutConfig `yaml:"timeouts"`
}

// ProxyPrefixes parses TrustedProxies. A bare address becomes a single
// host prefix.
func (s ServerConfig) ProxyPrefixes() ([]netip.Prefix, error) {
	ret := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, value := range s.TrustedProxies {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(value); err == nil {
			ret = append(ret, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is neither an address nor a cidr range", value)
		}
		addr = addr.Unmap()
		ret = append(ret, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return ret, nil
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH"`
}

type ContentConfig struct {
	// Dir holds blog/*.md and flows/*.md imported on start when set.
	Dir      string        `yaml:"dir" env:"CONTENT_DIR"`
	Watch    bool          `yaml:"watch" env:"CONTENT_WATCH"`
	Debounce time.Duration `yaml:"debounce" env:"CONTENT_DEBOUNCE"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_URL"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL"`
}

type RabbitConfig struct {
	Url string `yaml:"url" env:"RABBIT_URL"`
}

type FirebaseConfig struct {
	Enabled         bool   `yaml:"enabled" env:"FIREBASE_ENABLED"`
	CredentialsFile string `yaml:"credentialsFile" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type AuthConfig struct {
	JwtSecret  string `yaml:"jwtSecret" env:"JWT_SECRET"`
	Issuer     string `yaml:"issuer" env:"JWT_ISSUER"`
	CookieName string `yaml:"cookieName" env:"AUTH_COOKIE"`
	ApiKey     string `yaml:"apiKey" env:"ADMIN_API_KEY"`
}

func (a AuthConfig) Enabled() bool {
	return a.JwtSecret != "" || a.ApiKey != ""
}

type ContactConfig struct {
	PerMinute float64 `yaml:"perMinute" env:"CONTACT_PER_MINUTE"`
	Burst     int     `yaml:"burst" env:"CONTACT_BURST"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

func Defaults() Config {
	return Config{
		Site: "flowfinder",
		Server: ServerConfig{
			Addr:            ":8080",
			DebugAddr:       ":8081",
			Profiling:       false,
			DefaultPageSize: 24,
			MaxPageSize:     100,
			CacheSeconds:    60,
			Timeouts:        common.DefaultTimeouts(),
		},
		Database: DatabaseConfig{Path: "data/flowfinder.db"},
		Content:  ContentConfig{Debounce: 500 * time.Millisecond},
		Redis:    RedisConfig{TTL: 5 * time.Minute},
		Auth:     AuthConfig{CookieName: "flowfinder-admin", Issuer: "flowfinder"},
		Contact:  ContactConfig{PerMinute: 6, Burst: 3},
		Log:      LogConfig{Level: "info"},
	}
}

// loadEnvFiles loads ENV_FILE when set and otherwise .env.local and .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var ErrInvalid = errors.New("invalid configuration")

func (c *Config) Validate() error {
	var errs []error
	if c.Site == "" {
		errs = append(errs, errors.New("site is required"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.DefaultPageSize < 1 {
		errs = append(errs, errors.New("server.defaultPageSize must be positive"))
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		errs = append(errs, errors.New("server.maxPageSize must not be below defaultPageSize"))
	}
	if _, err := c.Server.ProxyPrefixes(); err != nil {
		errs = append(errs, fmt.Errorf("server.trustedProxies: %w", err))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JwtSecret != "" && len(c.Auth.JwtSecret) < 16 {
		errs = append(errs, errors.New("auth.jwtSecret must be at least 16 characters"))
	}
	if c.Contact.PerMinute <= 0 || c.Contact.Burst < 1 {
		errs = append(errs, errors.New("contact rate limit must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// GetConfigPath returns CONFIG_PATH when set and defaultPath otherwise.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}
