package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")
	testLogger.Error("error message", fmt.Errorf("test error"), StepKey, "save preprocessor")

	require.NotEmpty(t, buffer.String())

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, testLogger.ContainsMessage(msg), "missing %q", msg)
	}
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0)) // JSON numbers decode as float64
	assert.True(t, testLogger.ContainsField("error", "test error"))
	assert.True(t, testLogger.ContainsField(StepKey, "save preprocessor"))
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "ColumnTransformer",
		ComponentKey, "compose",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFitTransform)

	assert.True(t, testLogger.ContainsField(ModelNameKey, "ColumnTransformer"))
	assert.True(t, testLogger.ContainsField(ComponentKey, "compose"))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationFitTransform))
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, testLogger.Enabled(ctx, LevelInfo))
	assert.True(t, testLogger.Enabled(ctx, LevelError))
	assert.False(t, testLogger.Enabled(ctx, LevelDebug))

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	assert.False(t, testLogger.ContainsMessage("this should not appear"))
	assert.True(t, testLogger.ContainsMessage("this should appear"))
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("test-component").Info("named logger message")

	out := buffer.String()
	assert.Contains(t, out, "provider test message")
	assert.Contains(t, out, "named logger message")
	assert.Contains(t, out, "test-component")
}

func TestTestLoggerConcurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const goroutines, perGoroutine = 4, 5
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				testLogger.Info(fmt.Sprintf("goroutine %d message %d", id, j))
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, goroutines*perGoroutine)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologProviderFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("transformation")
	logger.Info("Numerical pipeline implemented",
		ColumnsKey, []string{"reading_score", "writing_score"},
		SamplesKey, 8,
	)
	logger.Debug("dropped at info level")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Numerical pipeline implemented", entry["message"])
	assert.Equal(t, "transformation", entry[ComponentKey])
	assert.Equal(t, float64(8), entry[SamplesKey])
	assert.Equal(t, []interface{}{"reading_score", "writing_score"}, entry[ColumnsKey])
}

func TestZerologProviderErrorStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, LevelDebug).GetLogger()

	logger.Error("save failed", errors.WithStack(errors.New("disk full")), PathKey, "artifact/preprocessor.gob")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Contains(t, entries[0]["error"], "disk full")
	assert.Equal(t, "artifact/preprocessor.gob", entries[0][PathKey])
	assert.NotEmpty(t, entries[0][StacktraceKey])
}

func TestZerologProviderSetLevel(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProviderWithWriter(&buf, LevelError)
	ctx := context.Background()

	assert.False(t, provider.GetLogger().Enabled(ctx, LevelInfo))

	provider.SetLevel(LevelDebug)
	logger := provider.GetLogger()
	assert.True(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug("now visible", "odd")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "now visible", entries[0]["message"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Panics(t, func() { ToLogLevel(tt.in) })
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelInfo)
	SetProvider(provider)
	t.Cleanup(func() { SetProvider(nil) })

	GetLogger().Info("through default provider")
	assert.Contains(t, buffer.String(), "through default provider")
}

func TestTestLoggerWithSharesBuffer(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)
	child := logger.With(StepKey, "fit transform train features")

	logger.Info("Obtained preprocessing object")
	child.Warn("Constant feature", "column", "lunch")
	logger.Debug("dropped")

	assert.Equal(t, []string{"Obtained preprocessing object", "Constant feature"}, logger.Messages())
	assert.Equal(t, 2, strings.Count(buffer.String(), "\n"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Nil(t, entries[0][StepKey])
	assert.Equal(t, "fit transform train features", entries[1][StepKey])
	assert.Equal(t, "WARN", entries[1]["level"])
}
