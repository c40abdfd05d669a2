// Package log defines the logging interface shared by every xmlrecords
// component. Components receive a Logger as an option and fall back to a
// no-op logger, so library code never writes to the terminal on its own.
package log

// Logger is a leveled, structured logger.
type Logger interface {
	Trace(msg string, fields ...Fields)
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(err error, msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// Fields are key/value pairs attached to a log line.
type Fields map[string]any

// Well-known field names.
const (
	ModuleField    = "module"
	RunIDField     = "run_id"
	PathField      = "path"
	PartitionField = "partition"
)

type NoopLogger struct{}

func (l *NoopLogger) Trace(msg string, fields ...Fields)            {}
func (l *NoopLogger) Debug(msg string, fields ...Fields)            {}
func (l *NoopLogger) Info(msg string, fields ...Fields)             {}
func (l *NoopLogger) Warn(err error, msg string, fields ...Fields)  {}
func (l *NoopLogger) Error(err error, msg string, fields ...Fields) {}
func (l *NoopLogger) WithFields(fields Fields) Logger {
	return l
}

func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// NewLogger returns l when it is not nil, or a no-op logger otherwise.
func NewLogger(l Logger) Logger {
	if l == nil {
		return &NoopLogger{}
	}

	return l
}

// MergeFields returns a new Fields holding f1 overlaid with f2.
func MergeFields(f1, f2 Fields) Fields {
	allFields := make(Fields, len(f1)+len(f2))
	for _, fmap := range []Fields{f1, f2} {
		for k, v := range fmap {
			allFields[k] = v
		}
	}

	return allFields
}
