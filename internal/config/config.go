package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr              string `yaml:"addr"`
	ReadTimeoutMS     int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS    int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS     int    `yaml:"idle_timeout_ms"`
	ShutdownTimeoutMS int    `yaml:"shutdown_timeout_ms"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	StaticDir         string `yaml:"static_dir"` // empty disables static files
	CSP               string `yaml:"csp"`        // empty keeps the built-in policy
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"; "-" disables
}

type Session struct {
	CookieName      string `yaml:"cookie_name"`
	Secret          string `yaml:"secret"`
	TTLMinutes      int    `yaml:"ttl_minutes"`
	LookupTimeoutMS int    `yaml:"lookup_timeout_ms"`
	Secure          bool   `yaml:"secure"`
}

type Limits struct {
	WindowMS    int  `yaml:"window_ms"`
	MaxRequests int  `yaml:"max_requests"`
	RetentionMS int  `yaml:"retention_ms"`
	TrustProxy  bool `yaml:"trust_proxy"`
	Login       struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"login"`
}

type Store struct {
	Driver string `yaml:"driver"` // "memory" or "postgres"
	DSN    string `yaml:"dsn"`
}

// Redis holds the shared counter store. An empty Addr keeps counters in
// process.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Session       Session       `yaml:"session"`
	Limits        Limits        `yaml:"limits"`
	Store         Store         `yaml:"store"`
	Redis         Redis         `yaml:"redis"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (s Server) ShutdownTimeout() time.Duration {
	if s.ShutdownTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(s.ShutdownTimeoutMS) * time.Millisecond
}

func (s Server) MaxBody() int64 {
	if s.MaxBodyBytes == 0 {
		return 1 << 20
	}
	return s.MaxBodyBytes
} // default 1MB

func (s Session) TTL() time.Duration { return time.Duration(s.TTLMinutes) * time.Minute }

func (s Session) LookupTimeout() time.Duration {
	return time.Duration(s.LookupTimeoutMS) * time.Millisecond
}

func (l Limits) Window() time.Duration    { return time.Duration(l.WindowMS) * time.Millisecond }
func (l Limits) Retention() time.Duration { return time.Duration(l.RetentionMS) * time.Millisecond }

// Load reads the YAML file at path and fills in defaults. A missing file
// yields the defaults alone.
func Load(path string) (*Root, error) {
	var cfg Root
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Root) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.PrometheusPath == "" {
		c.Observability.PrometheusPath = "/metrics"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "token"
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 24 * 60
	}
	if c.Session.LookupTimeoutMS <= 0 {
		c.Session.LookupTimeoutMS = 2000
	}
	if c.Limits.WindowMS == 0 {
		c.Limits.WindowMS = 15 * 60 * 1000
	}
	if c.Limits.MaxRequests == 0 {
		c.Limits.MaxRequests = 100
	}
	if c.Limits.Login.RatePerSecond == 0 {
		c.Limits.Login.RatePerSecond = 1
	}
	if c.Limits.Login.Burst == 0 {
		c.Limits.Login.Burst = 5
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides file values with environment variables.
func (c *Root) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Observability.LogLevel)
	str("SESSION_SECRET", &c.Session.Secret)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		c.Store.DSN = v
		c.Store.Driver = DriverPostgres
	}
	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v, ok := lookup("RATE_LIMIT_MAX"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_MAX: %w", err)
		}
		c.Limits.MaxRequests = n
	}
	if v, ok := lookup("RATE_LIMIT_WINDOW"); ok && v != "" {
		d, err := parseWindow(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
		c.Limits.WindowMS = int(d / time.Millisecond)
	}
	if v, ok := lookup("TRUST_PROXY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_PROXY: %w", err)
		}
		c.Limits.TrustProxy = b
	}
	return nil
}

// parseWindow accepts a Go duration ("15m") or a bare millisecond count.
func parseWindow(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func (c *Root) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session secret is required (session.secret or SESSION_SECRET)"))
	}
	if c.Limits.WindowMS <= 0 {
		errs = append(errs, fmt.Errorf("limits.window_ms must be positive, got %d", c.Limits.WindowMS))
	}
	if c.Limits.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_requests must be positive, got %d", c.Limits.MaxRequests))
	}
	if c.Limits.RetentionMS < 0 {
		errs = append(errs, errors.New("limits.retention_ms must not be negative"))
	}
	if c.Limits.Login.RatePerSecond <= 0 || c.Limits.Login.Burst <= 0 {
		errs = append(errs, errors.New("limits.login rate and burst must be positive"))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}
