package libemit

type logger interface {
	WithField(key string, value any) logger
	Debugf(format string, args ...any)
	Debugln(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// noopLogger discards everything. It is the default for sources and feeds so
// that callers are not forced to wire a logger.
type noopLogger struct{}

func (n noopLogger) WithField(string, any) logger { return n }
func (noopLogger) Debugf(string, ...any)          {}
func (noopLogger) Debugln(...any)                 {}
func (noopLogger) Infof(string, ...any)           {}
func (noopLogger) Infoln(...any)                  {}
func (noopLogger) Warnf(string, ...any)           {}
func (noopLogger) Errorf(string, ...any)          {}
