package evreg

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything. It is the default
// for constructors that receive a nil Logger.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func (l noopLogger) WithField(string, any) Logger { return l }

func (noopLogger) Debug(...any) {}

func (noopLogger) Debugf(string, ...any) {}

func (noopLogger) Debugln(...any) {}

func (noopLogger) Info(...any) {}

func (noopLogger) Infof(string, ...any) {}

func (noopLogger) Infoln(...any) {}

func (noopLogger) Warn(...any) {}

func (noopLogger) Warnf(string, ...any) {}

func (noopLogger) Warnln(...any) {}

func (noopLogger) Error(...any) {}

func (noopLogger) Errorf(string, ...any) {}

func (noopLogger) Errorln(...any) {}
