package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Session       SessionConfig       `mapstructure:"session"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig points at the appraisal REST API. BaseURL includes the /api prefix.
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ContractPath string        `mapstructure:"contract_path"`
}

const (
	SessionDriverMemory   = "memory"
	SessionDriverFile     = "file"
	SessionDriverSQLite   = "sqlite"
	SessionDriverPostgres = "postgres"
)

type SessionConfig struct {
	Driver        string        `mapstructure:"driver"`
	Dir           string        `mapstructure:"dir"`
	Source        string        `mapstructure:"source"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	CookieName    string        `mapstructure:"cookie_name"`
	Secret        string        `mapstructure:"secret"`
	CookieTTL     time.Duration `mapstructure:"cookie_ttl"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	GuardWait     time.Duration `mapstructure:"guard_wait"`
}

type SecurityConfig struct {
	CSRFKey string `mapstructure:"csrf_key"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- DEFAULTS -----------------

func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Session.Driver == "" {
		c.Session.Driver = SessionDriverMemory
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "appraisal_session"
	}
	if c.Session.CookieTTL == 0 {
		c.Session.CookieTTL = 7 * 24 * time.Hour
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 24 * time.Hour
	}
	if c.Session.SweepSchedule == "" {
		c.Session.SweepSchedule = "@every 15m"
	}
	if c.Session.GuardWait == 0 {
		c.Session.GuardWait = 2 * time.Second
	}
	if c.Session.MaxOpenConns == 0 {
		c.Session.MaxOpenConns = 10
	}
	if c.Session.MaxIdleConns == 0 {
		c.Session.MaxIdleConns = 5
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// ----------------- ENVIRONMENT -----------------

// LoadConfigFromEnv builds the configuration for container deployments.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:       getEnv("HTTP_BASE_URL", ""),
			SecureCookies: getEnvAsBool("HTTP_SECURE_COOKIES", true),
			ReadTimeout:   getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:   getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Backend: BackendConfig{
			BaseURL:      getEnv("BACKEND_BASE_URL", ""),
			Timeout:      getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
			ContractPath: getEnv("BACKEND_CONTRACT_PATH", ""),
		},
		Session: SessionConfig{
			Driver:        getEnv("SESSION_DRIVER", SessionDriverPostgres),
			Dir:           getEnv("SESSION_DIR", ""),
			Source:        getEnv("SESSION_SOURCE", ""),
			MaxOpenConns:  getEnvAsInt("SESSION_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getEnvAsInt("SESSION_MAX_IDLE_CONNS", 5),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "appraisal_session"),
			Secret:        getEnv("SESSION_SECRET", ""),
			CookieTTL:     getEnvAsDuration("SESSION_COOKIE_TTL", 7*24*time.Hour),
			IdleTTL:       getEnvAsDuration("SESSION_IDLE_TTL", 24*time.Hour),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 15m"),
			GuardWait:     getEnvAsDuration("SESSION_GUARD_WAIT", 2*time.Second),
		},
		Security: SecurityConfig{
			CSRFKey: getEnv("CSRF_KEY", ""),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
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

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backend config: %v", err))
	}

	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("session config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

func (c *SessionConfig) Validate() error {
	switch c.Driver {
	case SessionDriverMemory:
	case SessionDriverFile:
		if c.Dir == "" {
			return errors.New("dir is required for the file driver")
		}
	case SessionDriverSQLite, SessionDriverPostgres:
		if c.Source == "" {
			return fmt.Errorf("source is required for the %s driver", c.Driver)
		}
		if c.MaxIdleConns > c.MaxOpenConns {
			return errors.New("max_idle_conns cannot be greater than max_open_conns")
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if len(c.Secret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.IdleTTL <= 0 {
		return errors.New("idle_ttl must be positive")
	}
	if c.GuardWait < 0 {
		return errors.New("guard_wait cannot be negative")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.CSRFKey) != 32 {
		return errors.New("csrf_key must be exactly 32 bytes")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
