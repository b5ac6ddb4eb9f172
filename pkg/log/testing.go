package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// sink is the buffer shared by a TestLogger and every logger derived from it
// through With.
type sink struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(line)
	s.buf.WriteByte('\n')
}

func (s *sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// TestLogger records every entry as one JSON line in memory, so tests can
// assert on what a component logged without touching stderr.
type TestLogger struct {
	sink   *sink
	level  Level
	fields map[string]interface{}
}

// NewTestLogger returns a logger recording entries at level and above, and
// the buffer it writes to.
//
//	logger, buf := log.NewTestLogger(log.LevelDebug)
//	logger.Info("Saved preprocessing object", log.PathKey, path)
//	// buf.String() holds {"level":"INFO","message":"Saved preprocessing object",...}
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{
		sink:   &sink{buf: buf},
		level:  level,
		fields: map[string]interface{}{},
	}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With returns a logger writing to the same buffer with fields attached to
// every entry.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	addPairs(merged, fields)
	return &TestLogger{sink: t.sink, level: t.level, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if !t.Enabled(context.Background(), level) {
		return
	}
	entry := make(map[string]interface{}, len(t.fields)+len(fields)/2+2)
	for k, v := range t.fields {
		entry[k] = v
	}
	// A leading error is the entry's error, as in the zerolog backend.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			entry["error"] = err.Error()
			fields = fields[1:]
		}
	}
	addPairs(entry, fields)
	entry["level"] = level.String()
	entry["message"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"marshal_error":%q}`, level, msg, err))
	}
	t.sink.write(line)
}

func addPairs(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// GetLogEntries decodes the recorded entries in order.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(t.sink.String(), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Messages returns the message of every recorded entry in order. Entries
// that fail to decode are skipped.
func (t *TestLogger) Messages() []string {
	entries, _ := t.GetLogEntries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if m, ok := e["message"].(string); ok {
			out = append(out, m)
		}
	}
	return out
}

// ContainsMessage reports whether any recorded output contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.sink.String(), message)
}

// ContainsField reports whether some entry has key set to value. Numbers
// decode as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// TestLoggerProvider hands out TestLoggers sharing one buffer. Named loggers
// carry the name under "component".
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider returns a provider and the buffer its loggers write to.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With("component", name)
}

// SetLevel affects loggers obtained afterwards.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
