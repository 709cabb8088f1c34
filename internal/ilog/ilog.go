// Package ilog defines the minimal logging seam shared by the uds and
// namedpipe engines. It exists so that background machinery the caller
// cannot otherwise observe (limbo pool workers, pipe-instance churn,
// name reclamation) can report what it did without forcing a logging
// framework on callers who don't want one.
package ilog

import "github.com/sirupsen/logrus"

// Logger is satisfied directly by *logrus.Logger and *logrus.Entry,
// so callers that already use logrus need no adapter.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Standard returns a Logger backed by logrus's process-wide standard
// logger, for callers that want the engines' background events on the
// same output as the rest of their logs without any wiring.
func Standard() Logger { return logrus.StandardLogger() }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Nop is a Logger that discards everything. It is the default used
// whenever a component is constructed without an explicit Logger.
var Nop Logger = nopLogger{}

// Get returns l if non-nil, otherwise Nop.
func Get(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}
