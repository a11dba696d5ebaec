package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Tekmetric TekmetricConfig `toml:"tekmetric"`
	Server    ServerConfig    `toml:"server"`
	Cache     CacheConfig     `toml:"cache"`
	Database  DatabaseConfig  `toml:"database"`
	Panel     PanelConfig     `toml:"panel"`
	Log       LogConfig       `toml:"log"`
}

// TekmetricConfig contains upstream API credentials and client tuning.
type TekmetricConfig struct {
	BaseURL      string   `toml:"base_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	ShopID       string   `toml:"shop_id"`
	TokenTTL     Duration `toml:"token_ttl"`
	RateLimit    float64  `toml:"rate_limit"` // requests per second
	Burst        int      `toml:"burst"`
	Timeout      Duration `toml:"timeout"`
}

// ServerConfig contains HTTP proxy settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// CacheConfig selects the token cache backend.
type CacheConfig struct {
	Driver        string `toml:"driver"` // memory or redis
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	KeyPrefix     string `toml:"key_prefix"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PanelConfig contains defaults for the advance appointment panel.
type PanelConfig struct {
	ProxyURL      string `toml:"proxy_url"`
	Timezone      string `toml:"timezone"`
	MonthInterval int    `toml:"month_interval"`
	MileInterval  int    `toml:"mile_interval"`
	StartHour     int    `toml:"start_hour"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so TOML values like "55m" decode directly.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Location returns the panel's time zone, falling back to the local zone.
func (p PanelConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Addr returns the listen address for the proxy.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values not present in the file keep the embedded defaults; environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored so a bare checkout still runs.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, p, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values with environment variables when set.
func (c *Config) ApplyEnv() {
	c.Tekmetric.BaseURL = envOr("TEKMETRIC_BASE_URL", c.Tekmetric.BaseURL)
	c.Tekmetric.ClientID = envOr("TEKMETRIC_CLIENT_ID", c.Tekmetric.ClientID)
	c.Tekmetric.ClientSecret = envOr("TEKMETRIC_CLIENT_SECRET", c.Tekmetric.ClientSecret)
	c.Tekmetric.ShopID = envOr("TEKMETRIC_SHOP_ID", c.Tekmetric.ShopID)
	c.Panel.ProxyURL = envOr("TEKX_PROXY_URL", c.Panel.ProxyURL)
	c.Cache.RedisAddr = envOr("TEKX_REDIS_ADDR", c.Cache.RedisAddr)
	c.Log.Level = envOr("TEKX_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("TEKX_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate reports missing upstream credentials.
func (c *Config) Validate() error {
	var missing []string
	if c.Tekmetric.BaseURL == "" {
		missing = append(missing, "tekmetric.base_url")
	}
	if c.Tekmetric.ClientID == "" {
		missing = append(missing, "tekmetric.client_id")
	}
	if c.Tekmetric.ClientSecret == "" {
		missing = append(missing, "tekmetric.client_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
