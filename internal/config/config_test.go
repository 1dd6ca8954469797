package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.App != AppCustomer {
		t.Fatalf("App = %q, want %q", cfg.App, AppCustomer)
	}
	if !reflect.DeepEqual(cfg.Candidates, DefaultCandidates()) {
		t.Fatalf("Candidates = %v, want %v", cfg.Candidates, DefaultCandidates())
	}
	if cfg.ProbeTimeout != defaultProbeTimeout || cfg.PollInterval != defaultPollInterval {
		t.Fatalf("timeouts = %v/%v, want defaults", cfg.ProbeTimeout, cfg.PollInterval)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
app = " Rider "
candidates = ["  192.168.1.20:8000/ ", "http://10.0.2.2:8000"]
probe_timeout = "2s"
poll_interval = "750ms"
log_level = " debug "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.App != AppRider {
		t.Fatalf("App = %q, want %q", cfg.App, AppRider)
	}
	want := []string{"http://192.168.1.20:8000", "http://10.0.2.2:8000"}
	if !reflect.DeepEqual(cfg.Candidates, want) {
		t.Fatalf("Candidates = %v, want %v", cfg.Candidates, want)
	}
	if cfg.ProbeTimeout != 2*time.Second {
		t.Fatalf("ProbeTimeout = %v, want 2s", cfg.ProbeTimeout)
	}
	if cfg.PollInterval != 750*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 750ms", cfg.PollInterval)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want default", cfg.RequestTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COURIER_CANDIDATES", "http://a:8000,http://b:8000")
	t.Setenv("COURIER_APP", "rider")
	t.Setenv("COURIER_CONNECT_TIMEOUT", "3s")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
app = "customer"
candidates = ["http://file:8000"]
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.App != AppRider {
		t.Fatalf("App = %q, want rider", cfg.App)
	}
	want := []string{"http://a:8000", "http://b:8000"}
	if !reflect.DeepEqual(cfg.Candidates, want) {
		t.Fatalf("Candidates = %v, want %v", cfg.Candidates, want)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Fatalf("ConnectTimeout = %v, want 3s", cfg.ConnectTimeout)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`candidates = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Fatalf("Load error = %v, want poll_interval parse error", err)
	}
}

func TestNormalizeCandidates(t *testing.T) {
	got := NormalizeCandidates([]string{
		"", " 10.0.0.1:8000 ", "http://10.0.0.1:8000/", "https://api.example.com",
		"http://a", "http://b", "http://c", "http://d",
	})
	want := []string{
		"http://10.0.0.1:8000",
		"https://api.example.com",
		"http://a",
		"http://b",
		"http://c",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeCandidates = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.App = "driver"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate returned nil error for unknown app")
	}

	cfg = Default()
	cfg.Candidates = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate returned nil error for empty candidates")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
