package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestNewLogger tests the creation of a new logger instance
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantLevel Level
	}{
		{
			name:      "create debug logger",
			level:     DebugLevel,
			wantLevel: DebugLevel,
		},
		{
			name:      "create info logger",
			level:     InfoLevel,
			wantLevel: InfoLevel,
		},
		{
			name:      "create error logger",
			level:     ErrorLevel,
			wantLevel: ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if logger.level != tt.wantLevel {
				t.Errorf("New() level = %v, want %v", logger.level, tt.wantLevel)
			}
		})
	}
}

// TestLoggerDebug tests debug level logging with timestamps
func TestLoggerDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		level:  DebugLevel,
		output: &buf,
	}

	// Test that debug messages are logged at debug level
	logger.Debug("test debug message")
	output := buf.String()

	// Check timestamp format (YYYY-MM-DD HH:MM:SS)
	if !strings.Contains(output, time.Now().Format("2006-01-02")) {
		t.Error("Debug log should contain date in YYYY-MM-DD format")
	}

	// Check log level indicator
	if !strings.Contains(output, "[DEBUG]") {
		t.Error("Debug log should contain [DEBUG] level indicator")
	}

	// Check message
	if !strings.Contains(output, "test debug message") {
		t.Error("Debug log should contain the message")
	}

	// Test that debug messages are not logged at info level
	buf.Reset()
	logger.level = InfoLevel
	logger.Debug("should not appear")
	if buf.Len() > 0 {
		t.Error("Debug messages should not be logged when level is Info")
	}
}

// TestLoggerInfo tests info level logging
func TestLoggerInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		level:  InfoLevel,
		output: &buf,
	}

	logger.Info("test info message")
	output := buf.String()

	// Check timestamp
	if !strings.Contains(output, time.Now().Format("2006-01-02")) {
		t.Error("Info log should contain timestamp")
	}

	// Check level
	if !strings.Contains(output, "[INFO]") {
		t.Error("Info log should contain [INFO] level indicator")
	}

	// Check message
	if !strings.Contains(output, "test info message") {
		t.Error("Info log should contain the message")
	}

	// Test that info messages are not logged at error level
	buf.Reset()
	logger.level = ErrorLevel
	logger.Info("should not appear")
	if buf.Len() > 0 {
		t.Error("Info messages should not be logged when level is Error")
	}
}

// TestLoggerError tests error level logging
func TestLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		level:  ErrorLevel,
		output: &buf,
	}

	logger.Error("test error message")
	output := buf.String()

	// Check timestamp
	if !strings.Contains(output, time.Now().Format("2006-01-02")) {
		t.Error("Error log should contain timestamp")
	}

	// Check level
	if !strings.Contains(output, "[ERROR]") {
		t.Error("Error log should contain [ERROR] level indicator")
	}

	// Check message
	if !strings.Contains(output, "test error message") {
		t.Error("Error log should contain the message")
	}
}

// TestLoggerFormatting tests printf-style formatting
func TestLoggerFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		level:  DebugLevel,
		output: &buf,
	}

	logger.Debugf("formatted %s with number %d", "string", 42)
	output := buf.String()

	if !strings.Contains(output, "formatted string with number 42") {
		t.Error("Debugf should support printf-style formatting")
	}

	buf.Reset()
	logger.Infof("info %v", true)
	output = buf.String()

	if !strings.Contains(output, "info true") {
		t.Error("Infof should support printf-style formatting")
	}

	buf.Reset()
	logger.Errorf("error %x", 255)
	output = buf.String()

	if !strings.Contains(output, "error ff") {
		t.Error("Errorf should support printf-style formatting")
	}
}

// TestLoggerWithContext tests logging with contextual information
func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		level:  DebugLevel,
		output: &buf,
	}

	// Test WithField
	contextLogger := logger.WithField("trace_id", "abc-123")
	contextLogger.Info("processing run")
	output := buf.String()

	if !strings.Contains(output, "trace_id=abc-123") {
		t.Error("WithField should add field to log output")
	}

	// Test WithFields
	buf.Reset()
	multiFieldLogger := logger.WithFields(map[string]interface{}{
		"project": "p-1",
		"action":  "poll",
		"count":   5,
	})
	multiFieldLogger.Debug("multiple fields test")
	output = buf.String()

	if !strings.Contains(output, "project=p-1") {
		t.Error("WithFields should add project field")
	}
	if !strings.Contains(output, "action=poll") {
		t.Error("WithFields should add action field")
	}
	if !strings.Contains(output, "count=5") {
		t.Error("WithFields should add count field")
	}
}

// TestGlobalLogger tests the global logger instance
func TestGlobalLogger(t *testing.T) {
	// Test default logger
	if GetLogger() == nil {
		t.Error("GetLogger should return a non-nil logger")
	}

	// Test setting custom logger
	var buf bytes.Buffer
	customLogger := &Logger{
		level:  DebugLevel,
		output: &buf,
	}

	previous := GetLogger()
	defer SetLogger(previous)

	SetLogger(customLogger)
	GetLogger().Debug("global logger test")

	if !strings.Contains(buf.String(), "global logger test") {
		t.Error("SetLogger should update the global logger")
	}
}

// TestLogLevelFromString tests parsing log levels from strings
func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"INFO", InfoLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"invalid", InfoLevel}, // default
		{"", InfoLevel},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := LevelFromString(tt.input)
			if level != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}
// TestLoggerWithRun tests that run identifiers are attached in a stable order
func TestLoggerWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DebugLevel)
	logger.SetOutput(&buf)

	logger.WithRun("proj-1", "run-9").Info("polling")
	output := buf.String()

	if !strings.Contains(output, "polling project_id=proj-1 run_id=run-9") {
		t.Errorf("WithRun output = %q, want sorted project_id and run_id fields", output)
	}

	buf.Reset()
	logger.WithRun("proj-1", "").Info("triggering")
	if strings.Contains(buf.String(), "run_id") {
		t.Error("WithRun should omit an empty run id")
	}
}

// TestLoggerWithError tests error context fields
func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DebugLevel)
	logger.SetOutput(&buf)

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(errors.New("boom")).Error("request failed")
	output := buf.String()
	if !strings.Contains(output, "error=boom") || !strings.Contains(output, "error_type=*errors.errorString") {
		t.Errorf("WithError output = %q, want error and error_type fields", output)
	}
}

func TestLoggerWithDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DebugLevel)
	logger.SetOutput(&buf)

	logger.WithDuration(1500 * time.Millisecond).Debug("request done")
	if !strings.Contains(buf.String(), "duration_ms=1500") {
		t.Errorf("WithDuration output = %q, want duration_ms=1500", buf.String())
	}
}

// TestNopLogger tests that the nop logger writes nothing
func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Error("discarded")
	logger.WithField("k", "v").Debug("discarded")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() = %v, want nil", err)
	}
}

// TestFromZap tests forwarding to a zap backend
func TestFromZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.WithRun("proj-1", "run-1").Infof("status %s", "RUNNING")
	logger.Warn("careful")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "status RUNNING" {
		t.Errorf("message = %q, want %q", entries[0].Message, "status RUNNING")
	}
	fields := entries[0].ContextMap()
	if fields["project_id"] != "proj-1" || fields["run_id"] != "run-1" {
		t.Errorf("fields = %v, want project_id and run_id", fields)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", entries[1].Level)
	}
}

// TestConfigFromEnv tests reading logger configuration from the environment
func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HEX_LOG_LEVEL", "error")
	t.Setenv("HEX_LOG_FORMAT", "JSON")
	t.Setenv("HEX_LOG_CALLER", "true")
	t.Setenv("HEX_LOG_STACKTRACE", "Error")

	cfg := ConfigFromEnv()
	if cfg.Level != ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if cfg.Format != "json" || cfg.IsDevelopment() {
		t.Errorf("Format = %q, want json production mode", cfg.Format)
	}
	if !cfg.Caller {
		t.Error("Caller = false, want true")
	}
	if cfg.Stacktrace != "error" {
		t.Errorf("Stacktrace = %q, want error", cfg.Stacktrace)
	}

	t.Setenv("HEX_LOG_LEVEL", "")
	t.Setenv("HEX_VERBOSITY", "debug")
	if got := ConfigFromEnv().Level; got != DebugLevel {
		t.Errorf("Level with HEX_VERBOSITY=debug = %v, want debug", got)
	}
}
