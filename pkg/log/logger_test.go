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
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", RestartKey, 3)
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorFitFailure)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON numbers decode as float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("Expected leading error to be logged under the error key")
	}
	if !testLogger.ContainsField(ErrorCodeKey, ErrorFitFailure) {
		t.Error("Expected error code field")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "GaussianProcessRegressor",
		ComponentKey, "gp",
	)
	contextLogger.Info("Restart finished", RestartKey, 0, NLLKey, 12.5)

	if !testLogger.ContainsField(ModelNameKey, "GaussianProcessRegressor") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(NLLKey, 12.5) {
		t.Error("NLL field not found")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelWarn) {
		t.Error("Logger should be enabled for Warn level")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("hidden")
	if testLogger.ContainsMessage("hidden") {
		t.Error("Debug message should not appear when level is Info")
	}
}

func TestTestLoggerHasField(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	testLogger.With(ComponentKey, "dataio").Info("read training data", SamplesKey, 10)

	if !testLogger.HasField(ComponentKey) || !testLogger.HasField(SamplesKey) {
		t.Error("expected component and samples fields")
	}
	if testLogger.HasField(NLLKey) {
		t.Error("unexpected NLL field")
	}
}

func TestTestLoggerConcurrent(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				testLogger.Info("restart progress", RestartKey, id, IterationKey, j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("Expected 20 entries, got %d", len(entries))
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("not emitted")
	logger.With(ComponentKey, "gp").Info("Fit completed", SamplesKey, 4, NLLKey, 1.5)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if line["message"] != "Fit completed" || line["level"] != "info" {
		t.Errorf("unexpected record %v", line)
	}
	if line[ComponentKey] != "gp" || line[SamplesKey] != 4.0 || line[NLLKey] != 1.5 {
		t.Errorf("fields not attached: %v", line)
	}
}

func TestZerologLoggerErrorStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Error("Fit failed", errors.New("matrix not positive definite"), RestartKey, 2)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0][ErrAttrKey] != "matrix not positive definite" {
		t.Errorf("error not attached: %v", lines[0])
	}
	if _, ok := lines[0][StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace from cockroachdb/errors")
	}
	if lines[0][RestartKey] != 2.0 {
		t.Errorf("restart field missing: %v", lines[0])
	}
}

func TestZerologLoggerOddFields(t *testing.T) {
	var buf bytes.Buffer
	NewZerologLogger(&buf, LevelDebug).Info("odd", "dangling")

	lines := decodeLines(t, &buf)
	if lines[0]["!BADKEY"] != "dangling" {
		t.Errorf("dangling value not reported: %v", lines[0])
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLoggerIgnoresNil(t *testing.T) {
	prev := GetLogger()
	SetLogger(nil)
	if GetLogger() != prev {
		t.Error("SetLogger(nil) replaced the global logger")
	}
}
