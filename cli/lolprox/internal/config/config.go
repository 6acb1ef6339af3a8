// Package config loads lolprox configuration files and exposes strongly typed helpers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential discovery strategies.
const (
	StrategyLockfile    = "lockfile"
	StrategyProcessArgs = "process-args"
	StrategyAuto        = "auto"
)

const (
	defaultOutput         = "table"
	defaultStrategy       = StrategyLockfile
	defaultClientProcess  = "leagueclient.exe"
	defaultUXProcess      = "leagueclientux.exe"
	defaultLiveClientPort = 2999
	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 5 * time.Second
)

// Config represents the lolprox configuration file.
type Config struct {
	Lolprox LolproxConfig `yaml:"lolprox"`
}

// LolproxConfig captures discovery, transport, and presentation settings.
type LolproxConfig struct {
	Strategy        string        `yaml:"strategy"`
	TrustAnchor     string        `yaml:"trust_anchor"`
	OutputDefault   string        `yaml:"output_default"`
	ClientProcess   string        `yaml:"client_process"`
	UXProcess       string        `yaml:"ux_process"`
	Lockfile        string        `yaml:"lockfile"`
	LiveClientPort  int           `yaml:"live_client_port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MetricsTextfile string        `yaml:"metrics_textfile"`
	AuditLog        string        `yaml:"audit_log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Lolprox: LolproxConfig{
			Strategy:       defaultStrategy,
			OutputDefault:  defaultOutput,
			ClientProcess:  defaultClientProcess,
			UXProcess:      defaultUXProcess,
			LiveClientPort: defaultLiveClientPort,
			RequestTimeout: defaultRequestTimeout,
			PollInterval:   defaultPollInterval,
		},
	}
}

// Load reads the configuration from the provided path. When the file does not exist,
// the default configuration is returned without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read file: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	var raw Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("config: decode: %w", err)
	}

	cfg.apply(raw)
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the preferred configuration path derived from XDG conventions.
func DefaultPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv("LOLPROX_CONFIG")); env != "" {
		return env, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "lolprox", "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lolprox", "config.yaml"), nil
}

// NormalizeStrategy maps user input onto a known strategy, reporting unknown values.
func NormalizeStrategy(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", StrategyLockfile:
		return StrategyLockfile, nil
	case StrategyProcessArgs, "args", "process":
		return StrategyProcessArgs, nil
	case StrategyAuto:
		return StrategyAuto, nil
	default:
		return "", fmt.Errorf("config: unknown strategy %q (lockfile|process-args|auto)", value)
	}
}

// Output returns the configured default output format (table|plain|json).
func (c Config) Output() string {
	return c.Lolprox.OutputDefault
}

func (c *Config) apply(raw Config) {
	in := raw.Lolprox
	if strings.TrimSpace(in.Strategy) != "" {
		c.Lolprox.Strategy = in.Strategy
	}
	if strings.TrimSpace(in.TrustAnchor) != "" {
		c.Lolprox.TrustAnchor = strings.TrimSpace(in.TrustAnchor)
	}
	if strings.TrimSpace(in.OutputDefault) != "" {
		c.Lolprox.OutputDefault = in.OutputDefault
	}
	if strings.TrimSpace(in.ClientProcess) != "" {
		c.Lolprox.ClientProcess = strings.TrimSpace(in.ClientProcess)
	}
	if strings.TrimSpace(in.UXProcess) != "" {
		c.Lolprox.UXProcess = strings.TrimSpace(in.UXProcess)
	}
	if strings.TrimSpace(in.Lockfile) != "" {
		c.Lolprox.Lockfile = strings.TrimSpace(in.Lockfile)
	}
	if in.LiveClientPort != 0 {
		c.Lolprox.LiveClientPort = in.LiveClientPort
	}
	if in.RequestTimeout > 0 {
		c.Lolprox.RequestTimeout = in.RequestTimeout
	}
	if in.PollInterval > 0 {
		c.Lolprox.PollInterval = in.PollInterval
	}
	if strings.TrimSpace(in.MetricsTextfile) != "" {
		c.Lolprox.MetricsTextfile = strings.TrimSpace(in.MetricsTextfile)
	}
	if strings.TrimSpace(in.AuditLog) != "" {
		c.Lolprox.AuditLog = strings.TrimSpace(in.AuditLog)
	}
}

func (c *Config) normalize() error {
	strategy, err := NormalizeStrategy(c.Lolprox.Strategy)
	if err != nil {
		return err
	}
	c.Lolprox.Strategy = strategy

	switch strings.ToLower(strings.TrimSpace(c.Lolprox.OutputDefault)) {
	case "json":
		c.Lolprox.OutputDefault = "json"
	case "plain":
		c.Lolprox.OutputDefault = "plain"
	default:
		c.Lolprox.OutputDefault = defaultOutput
	}

	if c.Lolprox.LiveClientPort < 1 || c.Lolprox.LiveClientPort > 65535 {
		return fmt.Errorf("config: live_client_port %d out of range", c.Lolprox.LiveClientPort)
	}
	return nil
}
