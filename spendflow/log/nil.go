package log

// NopLogger is a no-op logger implementation.
type NopLogger struct{}

// NewNop creates a no-op logger implementation.
func NewNop() Logger {
	return &NopLogger{}
}

func (l *NopLogger) Info(_ ...any)            {}
func (l *NopLogger) Infof(_ string, _ ...any) {}
func (l *NopLogger) Warn(_ ...any)            {}
func (l *NopLogger) Warnf(_ string, _ ...any) {}
func (l *NopLogger) Error(_ ...any)           {}

func (l *NopLogger) Errorf(_ string, _ ...any) {}
func (l *NopLogger) Debug(_ ...any)            {}
func (l *NopLogger) Debugf(_ string, _ ...any) {}
func (l *NopLogger) Fatal(_ ...any)            {}
func (l *NopLogger) Fatalf(_ string, _ ...any) {}

// WithFields returns the same no-op logger.
//
//nolint:ireturn
func (l *NopLogger) WithFields(_ ...any) Logger { return l }

// Sync is a no-op and always returns nil.
func (l *NopLogger) Sync() error { return nil }
