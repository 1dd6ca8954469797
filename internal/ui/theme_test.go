package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != "Dracula" {
		t.Fatalf("ThemeNames() = %v, want Dracula first of 3", names)
	}
	names[0] = "changed"
	if ThemeNames()[0] != "Dracula" {
		t.Fatalf("ThemeNames should return a copy")
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct{ current, want string }{
		{"Dracula", "Nightfox"},
		{"Nightfox", "Slate"},
		{"Slate", "Dracula"},
		{"Unknown", "Dracula"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Fatalf("NextTheme(%s) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Unknown").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Dracula (fallback)", got)
	}
}

func TestEveryThemeColorsEveryState(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, state := range []string{"connecting", "streaming", "polling", "closed", "online", "offline"} {
			if th.StateColors[state] == "" {
				t.Errorf("theme %s has no color for %s", name, state)
			}
		}
	}
}
