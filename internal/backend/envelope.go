package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Messages surfaced when no candidate backend answered.
const (
	NoReachableError   = "No working URL found"
	NoReachableMessage = "Cannot reach Django server!"
)

// Envelope is the normalized result of every backend call. Fields holds any
// additional top-level keys the backend returned.
type Envelope struct {
	Success bool
	Message string
	Error   string
	Data    json.RawMessage
	Fields  map[string]json.RawMessage
}

var reservedKeys = map[string]struct{}{
	"success": {},
	"message": {},
	"error":   {},
	"data":    {},
}

// UnmarshalJSON decodes a backend object, keeping unknown keys in Fields.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("envelope must be a JSON object")
	}

	var out Envelope
	if v, ok := raw["success"]; ok {
		ok, err := looseBool(v)
		if err != nil {
			return fmt.Errorf("success: %w", err)
		}
		out.Success = ok
	}
	out.Message = textOf(raw["message"])
	out.Error = textOf(raw["error"])
	if v, ok := raw["data"]; ok && !isNull(v) {
		out.Data = v
	}
	for k, v := range raw {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if out.Fields == nil {
			out.Fields = make(map[string]json.RawMessage)
		}
		out.Fields[k] = v
	}
	*e = out
	return nil
}

// looseBool reads a success flag that some backend views send as "true",
// "1" or 1 instead of a JSON bool. Null counts as false.
func looseBool(raw json.RawMessage) (bool, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("not a boolean: %s", raw)
	}
}

// MarshalJSON re-emits the envelope with its domain fields inlined.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["success"] = e.Success
	if e.Message != "" {
		out["message"] = e.Message
	}
	if e.Error != "" {
		out["error"] = e.Error
	}
	if len(e.Data) > 0 {
		out["data"] = e.Data
	}
	return json.Marshal(out)
}

// Field decodes the named top-level key into dest. "data" is accepted too.
func (e Envelope) Field(name string, dest any) error {
	raw, ok := e.Fields[name]
	if name == "data" {
		raw, ok = e.Data, len(e.Data) > 0
	}
	if !ok {
		return fmt.Errorf("field %q not present", name)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode field %q: %w", name, err)
	}
	return nil
}

// Has reports whether the backend returned the named key.
func (e Envelope) Has(name string) bool {
	if name == "data" {
		return len(e.Data) > 0
	}
	_, ok := e.Fields[name]
	return ok
}

// Err returns nil for successful envelopes and the reported failure otherwise.
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	switch {
	case e.Error != "":
		return errors.New(e.Error)
	case e.Message != "":
		return errors.New(e.Message)
	default:
		return errors.New("request failed")
	}
}

// Failure builds a failed envelope.
func Failure(errText, message string) Envelope {
	return Envelope{Success: false, Error: errText, Message: message}
}

// NoReachableBackend is the envelope returned when resolution fails.
func NoReachableBackend() Envelope {
	return Failure(NoReachableError, NoReachableMessage)
}

// normalize maps a 2xx body onto an Envelope. Objects carrying "success" pass
// through; bare arrays and other objects are wrapped as data.
func normalize(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{Success: true}, nil
	}
	if !json.Valid(trimmed) {
		return Envelope{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	if trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if _, ok := probe["success"]; ok {
			var env Envelope
			if err := json.Unmarshal(trimmed, &env); err != nil {
				return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			return env, nil
		}
	}
	return Envelope{Success: true, Data: json.RawMessage(append([]byte(nil), trimmed...))}, nil
}

// textOf renders a message/error value as text. Django form errors arrive as
// objects or lists and are kept as their JSON text.
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
