package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Cleanup       CleanupConfig       `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	TrustedProxies    string        `mapstructure:"trusted_proxies"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
	IsolationLevel  string        `mapstructure:"isolation_level" validate:"omitempty,oneof=read_committed repeatable_read serializable"`
}

type SecurityConfig struct {
	BCryptCost     int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Cookie         CookieConfig  `mapstructure:"cookie"`
	LoginRate      RateConfig    `mapstructure:"login_rate"`
}

// RateConfig throttles a route per client address.
type RateConfig struct {
	PerMinute int `mapstructure:"per_minute" validate:"min=0"`
	Burst     int `mapstructure:"burst" validate:"min=0"`
}

type CookieConfig struct {
	Name     string        `mapstructure:"name"`
	Domain   string        `mapstructure:"domain"`
	SameSite string        `mapstructure:"same_site" validate:"omitempty,oneof=lax strict none"`
	Secure   bool          `mapstructure:"secure"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type CleanupConfig struct {
	Schedule string `mapstructure:"schedule"`
}

const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultCookieName      = "mt_auth"
	DefaultCleanupSchedule = "@every 1h"
	DefaultLoginPerMinute  = 10
	DefaultLoginBurst      = 5
)

// LoadConfigFromEnv builds the configuration purely from environment variables.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
			TrustedProxies:    getEnv("TRUSTED_PROXIES", ""),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
			IsolationLevel:  getEnv("DB_ISOLATION_LEVEL", "repeatable_read"),
		},
		Security: SecurityConfig{
			BCryptCost:     getEnvAsInt("BCRYPT_COST", 10),
			AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
			Cookie: CookieConfig{
				Name:     getEnv("AUTH_COOKIE_NAME", DefaultCookieName),
				Domain:   getEnv("AUTH_COOKIE_DOMAIN", ""),
				SameSite: getEnv("AUTH_COOKIE_SAME_SITE", "lax"),
				Secure:   getEnv("AUTH_COOKIE_SECURE", "") == "true" || getEnv("APP_ENV", "") == "production",
				MaxAge:   getEnvAsDuration("AUTH_COOKIE_MAX_AGE", 0),
			},
			LoginRate: RateConfig{
				PerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", DefaultLoginPerMinute),
				Burst:     getEnvAsInt("LOGIN_RATE_BURST", DefaultLoginBurst),
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Cleanup: CleanupConfig{
			Schedule: getEnv("TOKEN_CLEANUP_SCHEDULE", DefaultCleanupSchedule),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values that have a sensible fallback.
func (c *Config) ApplyDefaults() {
	if c.Security.AccessTokenTTL <= 0 {
		c.Security.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.Security.Cookie.Name == "" {
		c.Security.Cookie.Name = DefaultCookieName
	}
	if c.Security.Cookie.SameSite == "" {
		c.Security.Cookie.SameSite = "lax"
	}
	// the cookie never outlives the session it carries
	if c.Security.Cookie.MaxAge <= 0 || c.Security.Cookie.MaxAge > c.Security.AccessTokenTTL {
		c.Security.Cookie.MaxAge = c.Security.AccessTokenTTL
	}
	if c.Security.LoginRate.PerMinute == 0 {
		c.Security.LoginRate.PerMinute = DefaultLoginPerMinute
	}
	if c.Security.LoginRate.Burst == 0 {
		c.Security.LoginRate.Burst = DefaultLoginBurst
	}
	if c.Database.IsolationLevel == "" {
		c.Database.IsolationLevel = "repeatable_read"
	}
	if c.Cleanup.Schedule == "" {
		c.Cleanup.Schedule = DefaultCleanupSchedule
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// TrustedProxyPrefixes parses trusted_proxies, a comma separated list of
// addresses or CIDR ranges whose forwarding headers are believed.
func (c *ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %s: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %s: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	if _, err := c.TxOptions(); err != nil {
		return err
	}
	return nil
}

// TxOptions maps the configured isolation level onto database/sql options.
func (c *DatabaseConfig) TxOptions() (*sql.TxOptions, error) {
	switch c.IsolationLevel {
	case "", "repeatable_read":
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}, nil
	case "read_committed":
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}, nil
	case "serializable":
		return &sql.TxOptions{Isolation: sql.LevelSerializable}, nil
	default:
		return nil, fmt.Errorf("unsupported isolation_level %q", c.IsolationLevel)
	}
}

func (c *SecurityConfig) Validate() error {
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.AccessTokenTTL < time.Minute {
		return errors.New("access_token_ttl must be at least 1m")
	}
	if _, err := c.Cookie.SameSiteMode(); err != nil {
		return err
	}
	if c.LoginRate.PerMinute < 0 || c.LoginRate.Burst < 0 {
		return errors.New("login_rate values must not be negative")
	}
	return nil
}

func (c *CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(c.SameSite) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unsupported cookie same_site %q", c.SameSite)
	}
}
