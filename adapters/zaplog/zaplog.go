// Package zaplog adapts a zap logger to the portal Logger interface, so
// applications already running zap can route portal logs through their
// existing pipeline.
package zaplog

import (
	"go.uber.org/zap"

	portal "github.com/syntaxclub/go-portal"
)

// Logger forwards portal log calls to a zap SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Option customizes the adapter.
type Option func(*Logger)

// WithName scopes the adapter under a named zap logger.
func WithName(name string) Option {
	return func(l *Logger) {
		if name != "" {
			l.sugar = l.sugar.Named(name)
		}
	}
}

// New wraps the given zap logger. A nil logger falls back to zap's no-op
// logger, so the adapter is always safe to call.
func New(logger *zap.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	// skip the adapter frame so call sites resolve to the portal code
	l := &Logger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// NewDevelopment builds an adapter over a zap development logger, handy
// for CLIs and local debugging.
func NewDevelopment(opts ...Option) (*Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return New(logger, opts...), nil
}

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries. Call it before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

var _ portal.Logger = (*Logger)(nil)
