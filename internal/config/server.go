package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the port the status page has always been published on.
const DefaultPort = 4000

// ServerConfig holds configuration for the status server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	BindHost        string        `yaml:"bind_host"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	LogLevel        string        `yaml:"log_level"`
	ConfigFile      string        `yaml:"-"`
	RedisAddr       string        `yaml:"redis_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	StreamInterval  time.Duration `yaml:"stream_interval"`
}

// SetDefaults initializes c with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.StreamInterval == 0 {
		c.StreamInterval = 5 * time.Second
	}
	if c.ConfigFile == "" {
		c.ConfigFile = DefaultConfigPath("server.yaml")
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := GetEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := GetEnv("BIND_HOST", ""); v != "" {
		c.BindHost = v
	}
	if v := GetEnv("METRICS_PORT", ""); v != "" {
		c.MetricsAddr = normalizeAddr(v)
	}
	if v := GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := GetEnv("SHUTDOWN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ShutdownTimeout = d
		}
	}
	if v := GetEnv("STREAM_INTERVAL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.StreamInterval = d
		}
	}
}

// BindFlagsFromCurrent binds command line flags on fs using the current config
// values as defaults.
func (c *ServerConfig) BindFlagsFromCurrent(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port for the status page")
	fs.StringVar(&c.BindHost, "bind-host", c.BindHost, "interface to bind; empty listens on all interfaces")
	fs.Func("metrics-port", "Prometheus metrics listen address or port; defaults to the value of --port", func(v string) error {
		c.MetricsAddr = normalizeAddr(v)
		return nil
	})
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for publishing server state")
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "time to wait for in-flight requests on shutdown")
	fs.DurationVar(&c.StreamInterval, "stream-interval", c.StreamInterval, "interval between state stream updates")
}

// LoadFile populates the config from a YAML file.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// Validate reports configuration values the server cannot start with.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	if c.StreamInterval <= 0 {
		return errors.New("stream interval must be positive")
	}
	return nil
}

// ListenAddr is the address the status page binds.
func (c *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}

// MetricsOnMainPort reports whether /metrics is served by the main router.
func (c *ServerConfig) MetricsOnMainPort() bool {
	return c.MetricsAddr == "" || c.MetricsAddr == ":"+strconv.Itoa(c.Port) || c.MetricsAddr == c.ListenAddr()
}

// Load resolves the configuration with precedence defaults < file < env < args.
// A missing config file is not an error.
func Load(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	var cfg ServerConfig
	cfg.SetDefaults()
	// allows CONFIG_FILE from env
	cfg.ApplyEnv()
	if p, ok := configArg(args); ok {
		cfg.ConfigFile = p
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", cfg.ConfigFile, err)
		}
	}
	cfg.ApplyEnv()
	cfg.BindFlagsFromCurrent(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = fmt.Sprintf(":%d", cfg.Port)
	}
	return cfg, cfg.Validate()
}

// configArg finds --config ahead of flag parsing so the file can be loaded
// before flags override it.
func configArg(args []string) (string, bool) {
	for i, a := range args {
		if (a == "--config" || a == "-config") && i+1 < len(args) {
			return args[i+1], true
		}
		for _, prefix := range []string{"--config=", "-config="} {
			if strings.HasPrefix(a, prefix) {
				return strings.TrimPrefix(a, prefix), true
			}
		}
	}
	return "", false
}

func normalizeAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
