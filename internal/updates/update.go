package updates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// TypeOrderCount is the envelope type emitted by the polling transport.
const TypeOrderCount = "order_count_update"

const backendTimestampLayout = "2006-01-02 15:04:05"

// Transport names the path an Update arrived on.
type Transport string

const (
	TransportSocket Transport = "socket"
	TransportPoll   Transport = "poll"
)

// Update is one envelope delivered to a subscriber. Each Update replaces the
// previous one; it is never a delta.
type Update struct {
	Type      string
	Count     int
	Timestamp time.Time
	Transport Transport
	Raw       json.RawMessage
}

var errNotAnUpdate = errors.New("message is not an update envelope")

// parseUpdate decodes a socket message. Anything that is not a JSON object
// with a non-empty "type" is rejected.
func parseUpdate(data []byte, now time.Time) (Update, error) {
	var wire struct {
		Type      string          `json:"type"`
		Count     *int            `json:"count"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	if strings.TrimSpace(wire.Type) == "" {
		return Update{}, errNotAnUpdate
	}

	u := Update{
		Type:      wire.Type,
		Timestamp: parseTimestamp(wire.Timestamp, now),
		Transport: TransportSocket,
		Raw:       json.RawMessage(append([]byte(nil), data...)),
	}
	if wire.Count != nil {
		u.Count = *wire.Count
	}
	return u, nil
}

// parseTimestamp accepts RFC3339 strings, the backend's local layout, or
// epoch numbers in seconds or milliseconds. Anything else yields now.
func parseTimestamp(raw json.RawMessage, now time.Time) time.Time {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return now
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, text); err == nil {
				return t
			}
		}
		if t, err := time.ParseInLocation(backendTimestampLayout, text, time.Local); err == nil {
			return t
		}
		return now
	}

	var epoch float64
	if err := json.Unmarshal(trimmed, &epoch); err == nil && epoch > 0 {
		// Past this even a millisecond count no longer fits an int64.
		if epoch > math.MaxInt64/1e3 {
			return now
		}
		if epoch > 1e12 {
			return time.UnixMilli(int64(epoch))
		}
		sec := int64(epoch)
		return time.Unix(sec, int64((epoch-float64(sec))*1e9))
	}
	return now
}

// SocketURL derives the WebSocket endpoint from an HTTP base URL by swapping
// http for ws and https for wss.
func SocketURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in base url", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
