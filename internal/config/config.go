package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// App identifies which front-end the client is running as.
type App string

const (
	AppCustomer App = "customer"
	AppRider    App = "rider"
)

// Config captures everything Courier needs to reach the backend.
type Config struct {
	App            App
	Candidates     []string
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	PollInterval   time.Duration
	LogLevel       string
	LogFormat      string
	LogFile        string
	MetricsAddr    string
}

const (
	defaultConfigPath     = "~/.config/courier/config.toml"
	defaultLogFile        = "~/.local/share/courier/courier.log"
	defaultProbeTimeout   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultPollInterval   = 5 * time.Second
	maxCandidates         = 5
	envPrefix             = "COURIER"
)

// DefaultCandidates lists the addresses a development backend is usually
// reachable on: the Android emulator host alias, then loopback.
func DefaultCandidates() []string {
	return []string{
		"http://10.0.2.2:8000",
		"http://127.0.0.1:8000",
		"http://localhost:8000",
	}
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	return Config{
		App:            AppCustomer,
		Candidates:     DefaultCandidates(),
		ProbeTimeout:   defaultProbeTimeout,
		RequestTimeout: defaultRequestTimeout,
		ConnectTimeout: defaultConnectTimeout,
		PollInterval:   defaultPollInterval,
		LogLevel:       "info",
		LogFormat:      "json",
		LogFile:        mustExpand(defaultLogFile),
	}
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	App            string   `toml:"app"`
	Candidates     []string `toml:"candidates"`
	ProbeTimeout   string   `toml:"probe_timeout"`
	RequestTimeout string   `toml:"request_timeout"`
	ConnectTimeout string   `toml:"connect_timeout"`
	PollInterval   string   `toml:"poll_interval"`
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	LogFile        string   `toml:"log_file"`
	MetricsAddr    string   `toml:"metrics_addr"`
}

// envConfig holds COURIER_* overrides. Zero values mean "not set".
type envConfig struct {
	App            string        `envconfig:"APP"`
	Candidates     []string      `envconfig:"CANDIDATES"`
	ProbeTimeout   time.Duration `envconfig:"PROBE_TIMEOUT"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL"`
	LogLevel       string        `envconfig:"LOG_LEVEL"`
	LogFormat      string        `envconfig:"LOG_FORMAT"`
	LogFile        string        `envconfig:"LOG_FILE"`
	MetricsAddr    string        `envconfig:"METRICS_ADDR"`
}

// Load reads the TOML config (falling back to defaults when missing) and then
// applies COURIER_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Candidates = NormalizeCandidates(cfg.Candidates)
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates()
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if app := strings.TrimSpace(raw.App); app != "" {
		cfg.App = App(strings.ToLower(app))
	}
	if len(raw.Candidates) > 0 {
		cfg.Candidates = raw.Candidates
	}
	for _, d := range []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"probe_timeout", raw.ProbeTimeout, &cfg.ProbeTimeout},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
	} {
		if err := parseDuration(d.name, d.value, d.dest); err != nil {
			return err
		}
	}
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	setString(&cfg.MetricsAddr, raw.MetricsAddr)
	return nil
}

func applyEnv(cfg *Config) error {
	var env envConfig
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if app := strings.TrimSpace(env.App); app != "" {
		cfg.App = App(strings.ToLower(app))
	}
	if len(env.Candidates) > 0 {
		cfg.Candidates = env.Candidates
	}
	setDuration(&cfg.ProbeTimeout, env.ProbeTimeout)
	setDuration(&cfg.RequestTimeout, env.RequestTimeout)
	setDuration(&cfg.ConnectTimeout, env.ConnectTimeout)
	setDuration(&cfg.PollInterval, env.PollInterval)
	setString(&cfg.LogLevel, env.LogLevel)
	setString(&cfg.LogFormat, env.LogFormat)
	if logFile := strings.TrimSpace(env.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	setString(&cfg.MetricsAddr, env.MetricsAddr)
	return nil
}

// Validate reports configuration that cannot be used to start a client.
func (c Config) Validate() error {
	switch c.App {
	case AppCustomer, AppRider:
	default:
		return fmt.Errorf("unknown app %q (want %q or %q)", c.App, AppCustomer, AppRider)
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("no backend candidates configured")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

// NormalizeCandidates trims entries, defaults the scheme to http, strips
// trailing slashes, drops duplicates and keeps at most five, preserving order.
func NormalizeCandidates(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, "://") {
			trimmed = "http://" + trimmed
		}
		trimmed = strings.TrimRight(trimmed, "/")
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

func parseDuration(name, value string, dest *time.Duration) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", name, err)
	}
	if d > 0 {
		*dest = d
	}
	return nil
}

func setString(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = trimmed
	}
}

func setDuration(dest *time.Duration, value time.Duration) {
	if value > 0 {
		*dest = value
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
