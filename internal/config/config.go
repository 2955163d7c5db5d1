// Package config loads runtime settings and assembles the HTTP server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	MarkerWidthCM    float64 `validate:"gt=0"`
	MarkerStrategy   string  `validate:"oneof=window smallest"`
	DetectionBackend string  `validate:"oneof=native opencv"`

	BodyLimitMB    int           `validate:"min=1"`
	MaxConcurrent  int           `validate:"min=1"`
	RequestTimeout time.Duration `validate:"gt=0"`
	RateLimitRPS   float64       `validate:"gt=0"`
	RateLimitBurst int           `validate:"min=1"`

	LogLevel string
	LogFile  string
	Env      string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Host:             "0.0.0.0",
		Port:             5000,
		MarkerWidthCM:    5.0,
		MarkerStrategy:   "window",
		DetectionBackend: "native",
		BodyLimitMB:      50,
		MaxConcurrent:    runtime.NumCPU(),
		RequestTimeout:   30 * time.Second,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		LogLevel:         "info",
		Env:              "development",
	}
}

// Load reads envFiles (".env" when none are given) into the process
// environment, then builds and validates a Config. Missing env files are
// not an error; variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from lookup, falling back to Default for unset
// variables. It does not validate.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := envParser{lookup: lookup}

	p.str("APP_HOST", &cfg.Host)
	p.integer("APP_PORT", &cfg.Port)
	p.float("MARKER_WIDTH_CM", &cfg.MarkerWidthCM)
	p.str("MARKER_STRATEGY", &cfg.MarkerStrategy)
	p.str("DETECTION_BACKEND", &cfg.DetectionBackend)
	p.integer("BODY_LIMIT_MB", &cfg.BodyLimitMB)
	p.integer("MAX_CONCURRENT_MEASUREMENTS", &cfg.MaxConcurrent)
	p.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	p.float("RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	p.integer("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FILE", &cfg.LogFile)
	p.str("APP_ENV", &cfg.Env)

	cfg.MarkerStrategy = strings.ToLower(cfg.MarkerStrategy)
	cfg.DetectionBackend = strings.ToLower(cfg.DetectionBackend)

	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// Validate checks the struct tags of c.
func (c *Config) Validate() error {
	if err := NewValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewValidator returns the validator shared by configuration and request
// DTOs.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// envParser keeps the first parse error so callers can read every variable
// and check once.
type envParser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *envParser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *envParser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *envParser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = f
}

func (p *envParser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}
