// Package logging holds the logger shared by every fibertracts package.
// By default nothing is written; call SetLogger to enable output.
package logging

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var loggerPtr atomic.Pointer[logrus.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// newNopLogger creates a logger that discards all output.
func newNopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger replaces the package logger. Pass nil to restore the silent default.
//
// Levels used by fibertracts:
//   - Debug: pipeline recomputation (node name, input and output sizes)
//   - Info: model lifecycle (geometry assigned, fibers deleted)
//   - Warn: degraded features (missing tensors, detached ROI, failed pick)
//
// Example:
//
//	l := logrus.New()
//	l.SetLevel(logrus.DebugLevel)
//	logging.SetLogger(l)
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger.
func Logger() *logrus.Logger {
	return loggerPtr.Load()
}

// For returns an entry tagged with the emitting component.
func For(component string) *logrus.Entry {
	return Logger().WithField("component", component)
}
