package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  string
	Raw     string
}

// ParseLine understands both zap encodings: JSON objects from the production
// config and tab-separated lines from the development config. Lines in
// neither shape come back with only Message and Raw set.
func ParseLine(line string) Entry {
	trimmed := strings.TrimSpace(line)
	entry := Entry{Message: trimmed, Raw: line}
	if trimmed == "" {
		return entry
	}
	if strings.HasPrefix(trimmed, "{") {
		if parsed, ok := parseJSON(trimmed); ok {
			parsed.Raw = line
			return parsed
		}
		return entry
	}
	if parsed, ok := parseConsole(trimmed); ok {
		parsed.Raw = line
		return parsed
	}
	return entry
}

var reservedJSONKeys = map[string]struct{}{
	"level": {}, "ts": {}, "logger": {}, "msg": {}, "caller": {}, "stacktrace": {},
}

func parseJSON(line string) (Entry, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	var e Entry
	_ = json.Unmarshal(raw["level"], &e.Level)
	_ = json.Unmarshal(raw["logger"], &e.Logger)
	_ = json.Unmarshal(raw["msg"], &e.Message)
	e.Level = strings.ToUpper(e.Level)

	var epoch float64
	if err := json.Unmarshal(raw["ts"], &epoch); err == nil && epoch > 0 {
		sec := int64(epoch)
		e.Time = time.Unix(sec, int64((epoch-float64(sec))*1e9))
	} else {
		var text string
		if err := json.Unmarshal(raw["ts"], &text); err == nil {
			e.Time, _ = time.Parse(time.RFC3339Nano, text)
		}
	}

	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if _, ok := reservedJSONKeys[k]; !ok {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			e.Fields = string(b)
		}
	}
	return e, true
}

// parseConsole handles "TIME\tLEVEL\t[LOGGER\t][CALLER\t]MSG[\tFIELDS]".
func parseConsole(line string) (Entry, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 {
		return Entry{}, false
	}
	ts, err := time.Parse("2006-01-02T15:04:05.000Z0700", parts[0])
	if err != nil {
		return Entry{}, false
	}
	e := Entry{Time: ts, Level: strings.ToUpper(parts[1])}
	rest := parts[2:]
	if len(rest) > 1 && looksLikeLogger(rest[0]) {
		e.Logger = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 1 && looksLikeCaller(rest[0]) {
		rest = rest[1:]
	}
	e.Message = rest[0]
	if len(rest) > 1 {
		e.Fields = strings.Join(rest[1:], " ")
	}
	return e, true
}

func looksLikeLogger(s string) bool {
	return s != "" && !strings.ContainsAny(s, " :/")
}

func looksLikeCaller(s string) bool {
	i := strings.LastIndex(s, ".go:")
	return i > 0 && !strings.Contains(s, " ")
}
