package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when logging is not configured.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// NopProvider hands out NopLogger for every scope.
type NopProvider struct{}

// For returns a no-op logger.
func (NopProvider) For(string) *ScopedLogger { return NopLogger() }

// TestLogManager records entries in memory for assertions.
type TestLogManager struct {
	baseZap *zap.Logger
	logs    *observer.ObservedLogs
	loggers map[string]*ScopedLogger
	mu      sync.Mutex
}

// NewTestLogManager creates a Provider that records every entry at debug
// level and above.
func NewTestLogManager() *TestLogManager {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogManager{
		baseZap: zap.New(core),
		logs:    logs,
		loggers: make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if logger, ok := m.loggers[scope]; ok {
		return logger
	}
	logger := newScopedLogger(m.baseZap, scope, zapcore.DebugLevel)
	m.loggers[scope] = logger
	return logger
}

// Entries returns every recorded entry.
func (m *TestLogManager) Entries() []observer.LoggedEntry {
	return m.logs.All()
}

// Warnings returns the messages logged at WARN level.
func (m *TestLogManager) Warnings() []string {
	var msgs []string
	for _, e := range m.logs.FilterLevelExact(zapcore.WarnLevel).All() {
		msgs = append(msgs, e.Message)
	}
	return msgs
}
