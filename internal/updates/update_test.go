package updates

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{"http", "http://10.0.2.2:8000", "ws://10.0.2.2:8000/ws/orders/updates/", false},
		{"https", "https://api.example.com", "wss://api.example.com/ws/orders/updates/", false},
		{"trailing slash", "http://127.0.0.1:8000/", "ws://127.0.0.1:8000/ws/orders/updates/", false},
		{"base path kept", "https://example.com/api", "wss://example.com/api/ws/orders/updates/", false},
		{"already ws", "ws://host:9000", "ws://host:9000/ws/orders/updates/", false},
		{"unsupported scheme", "ftp://host", "", true},
		{"no scheme", "host:8000", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SocketURL(tt.base, defaultSocketPath)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SocketURL(%q) = %q, want error", tt.base, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SocketURL(%q) returned error: %v", tt.base, err)
			}
			if got != tt.want {
				t.Fatalf("SocketURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestParseUpdate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	u, err := parseUpdate([]byte(`{"type":"order_count_update","count":3,"timestamp":"2024-05-01T10:00:00Z","extra":true}`), now)
	if err != nil {
		t.Fatalf("parseUpdate returned error: %v", err)
	}
	if u.Type != TypeOrderCount || u.Count != 3 || u.Transport != TransportSocket {
		t.Fatalf("update = %+v, want order_count_update/3/socket", u)
	}
	if !u.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("Timestamp = %v, want 10:00 UTC", u.Timestamp)
	}
	var raw map[string]any
	if err := json.Unmarshal(u.Raw, &raw); err != nil || raw["extra"] != true {
		t.Fatalf("Raw = %s, want the received message", u.Raw)
	}

	other, err := parseUpdate([]byte(`{"type":"new_order"}`), now)
	if err != nil {
		t.Fatalf("parseUpdate returned error for other type: %v", err)
	}
	if other.Type != "new_order" || other.Count != 0 || !other.Timestamp.Equal(now) {
		t.Fatalf("update = %+v, want new_order with zero count at now", other)
	}
}

func TestParseUpdate_RejectsMalformed(t *testing.T) {
	now := time.Now()
	for _, msg := range []string{
		`not json`,
		`[1,2,3]`,
		`"order_count_update"`,
		`null`,
		`{"count":5}`,
		`{"type":"  "}`,
		`{"type":7}`,
	} {
		if _, err := parseUpdate([]byte(msg), now); err == nil {
			t.Errorf("parseUpdate(%s) returned nil error", msg)
		}
	}
	if _, err := parseUpdate([]byte(`{"count":5}`), now); !errors.Is(err, errNotAnUpdate) {
		t.Fatalf("parseUpdate without type error = %v, want errNotAnUpdate", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	local := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"missing", ``, now},
		{"null", `null`, now},
		{"rfc3339", `"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 nano", `"2024-05-01T10:00:00.5+02:00"`, time.Date(2024, 5, 1, 8, 0, 0, 500_000_000, time.UTC)},
		{"backend layout", `"2024-05-01 10:00:00"`, local},
		{"epoch seconds", `1714557600`, time.Unix(1714557600, 0)},
		{"epoch millis", `1714557600123`, time.UnixMilli(1714557600123)},
		{"garbage string", `"yesterday"`, now},
		{"negative", `-5`, now},
		{"epoch overflowing int64", `1e300`, now},
		{"epoch just past int64 millis", `9.3e15`, now},
		{"largest epoch millis", `9e15`, time.UnixMilli(9e15)},
		{"object", `{}`, now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(json.RawMessage(tt.raw), now)
			if !got.Equal(tt.want) {
				t.Fatalf("parseTimestamp(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
