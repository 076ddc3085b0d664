package recall

import "github.com/sirupsen/logrus"

// Diagnostics is the engine's sink for non-fatal anomalies (malformed
// filters, rejected temporal expressions). It is injected explicitly so
// the engine never accumulates process-wide state.
type Diagnostics interface {
	Warnf(format string, args ...any)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Warnf(string, ...any) {}

// NopDiagnostics discards all diagnostics.
func NopDiagnostics() Diagnostics { return nopDiagnostics{} }

type logDiagnostics struct {
	log logrus.FieldLogger
}

func (d logDiagnostics) Warnf(format string, args ...any) {
	d.log.Warnf(format, args...)
}

// LogDiagnostics records diagnostics through a structured logger.
func LogDiagnostics(log logrus.FieldLogger) Diagnostics {
	return logDiagnostics{log: log.WithField("component", "recall")}
}
