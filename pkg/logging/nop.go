package logging

// Nop returns a logger that discards everything. Components that receive no
// logger fall back to it rather than checking for nil at every call site.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}

func (n nopLogger) WithFields(...Field) Logger { return n }
func (n nopLogger) WithError(error) Logger     { return n }

func (nopLogger) SetLevel(Level)  {}
func (nopLogger) GetLevel() Level { return FatalLevel }
