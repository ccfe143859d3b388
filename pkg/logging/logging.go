// Package logging provides the structured logger used across the API and
// worker processes. It narrows zap's sugared API to the handful of keyval
// methods this codebase needs, so call sites stay uniform:
//
//	log.Info("job claimed", "job_id", id)
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
}

// Logger is a levelled, structured logger. Child loggers created with With
// share the parent's core and carry their fields on every entry.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a JSON production logger at the given level. Unknown level
// names fall back to info rather than failing startup over a typo.
func New(level string) *Logger {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z, _ = zap.NewProduction()
	}
	return &Logger{s: z.Sugar()}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{s: l.s.With(keyvals...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.s.Debugw(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.s.Infow(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.s.Warnw(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.s.Errorw(msg, keyvals...) }

// Fatal logs and exits the process. Reserved for startup wiring failures.
func (l *Logger) Fatal(msg string, keyvals ...any) { l.s.Fatalw(msg, keyvals...) }

// Sync flushes buffered entries. Deferred in main.
func (l *Logger) Sync() error { return l.s.Sync() }
