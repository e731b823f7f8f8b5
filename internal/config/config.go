// Package config loads service settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the variable that points at a YAML config file.
const PathEnvVar = "ARMYSTAY_CONFIG"

// DefaultPath is used when PathEnvVar is unset and the file exists.
const DefaultPath = "config.yaml"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Feed      FeedConfig      `koanf:"feed"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	CORS      CORSConfig      `koanf:"cors"`
	Auth      AuthConfig      `koanf:"auth"`
	Bookmarks BookmarksConfig `koanf:"bookmarks"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// FeedConfig controls where hotel documents come from. An empty URL
// serves the bundled dataset only.
type FeedConfig struct {
	URL             string        `koanf:"url" validate:"omitempty,http_url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gt=0"`
	CacheTTL        time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"gte=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// AuthConfig points at the Supabase project that owns user accounts.
// Account and bookmark routes are disabled while SupabaseURL is empty.
type AuthConfig struct {
	SupabaseURL    string `koanf:"supabase_url" validate:"omitempty,http_url"`
	AnonKey        string `koanf:"anon_key" validate:"required_with=SupabaseURL"`
	ServiceRoleKey string `koanf:"service_role_key"`
	JWTSecret      string `koanf:"jwt_secret" validate:"required_with=SupabaseURL"`
}

// BookmarksConfig locates the bookmark database. An empty path keeps
// bookmarks in memory.
type BookmarksConfig struct {
	Path string `koanf:"path"`
}

// Enabled reports whether a Supabase project is configured.
func (a AuthConfig) Enabled() bool {
	return a.SupabaseURL != ""
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Feed: FeedConfig{
			Timeout:         5 * time.Second,
			RefreshInterval: 5 * time.Minute,
			CacheTTL:        time.Minute,
			BreakerFailures: 3,
			BreakerTimeout:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Bookmarks: BookmarksConfig{
			Path: "data/bookmarks",
		},
	}
}

// envKeys maps environment variable names onto config keys.
var envKeys = map[string]string{
	"addr":                  "server.addr",
	"read_timeout":          "server.read_timeout",
	"write_timeout":         "server.write_timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"feed_url":              "feed.url",
	"feed_timeout":          "feed.timeout",
	"feed_refresh_interval": "feed.refresh_interval",
	"feed_cache_ttl":        "feed.cache_ttl",
	"feed_breaker_failures": "feed.breaker_failures",
	"feed_breaker_timeout":  "feed.breaker_timeout",
	"rate_limit_requests":   "ratelimit.requests",
	"rate_limit_window":     "ratelimit.window",
	"cors_allowed_origins":  "cors.allowed_origins",
	"supabase_url":          "auth.supabase_url",
	"supabase_anon_key":     "auth.anon_key",
	"supabase_service_role": "auth.service_role_key",
	"supabase_jwt_secret":   "auth.jwt_secret",
	"bookmarks_path":        "bookmarks.path",
}

const envPrefix = "ARMYSTAY_"

// envKey converts ARMYSTAY_FEED_URL into feed.url. Unknown variables map
// to "" and are skipped.
func envKey(name string) string {
	return envKeys[strings.ToLower(strings.TrimPrefix(name, envPrefix))]
}

// listKeys hold slices that arrive from the environment as comma-separated
// strings.
var listKeys = []string{"cors.allowed_origins"}

func splitLists(k *koanf.Koanf) error {
	for _, key := range listKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(key, values); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New()

// Load reads .env if present, then layers defaults, the YAML file and
// ARMYSTAY_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitLists(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func configPath() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}
