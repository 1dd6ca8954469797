// Package prefs persists device-local preferences and the session cache the
// screens keep between runs. Preferences are stored in
// ~/.config/courier/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences and the cached session.
type Prefs struct {
	Theme    string `toml:"theme"`
	Phone    string `toml:"phone,omitempty"`
	UserID   int64  `toml:"user_id,omitempty"`
	Role     string `toml:"role,omitempty"`
	DeviceID string `toml:"device_id,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/courier/prefs.toml"
	defaultTheme     = "Dracula"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing has been saved.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// LoggedIn reports whether a session is cached.
func (p Prefs) LoggedIn() bool {
	return p.UserID > 0
}

// ClearSession drops the cached user but keeps device settings.
func (p *Prefs) ClearSession() {
	p.Phone = ""
	p.UserID = 0
	p.Role = ""
}

// EnsureDeviceID assigns a random device id if none is set and reports
// whether it did.
func (p *Prefs) EnsureDeviceID() bool {
	if strings.TrimSpace(p.DeviceID) != "" {
		return false
	}
	p.DeviceID = uuid.NewString()
	return true
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Defaults()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.Phone = strings.TrimSpace(prefs.Phone)
	prefs.Role = strings.ToLower(strings.TrimSpace(prefs.Role))
	if prefs.UserID < 0 {
		prefs.UserID = 0
	}
	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
