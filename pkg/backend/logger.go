package backend

import (
	"fmt"
	"strings"
)

// Logger abstracts logging so callers can plug in logrus or anything with the
// same four methods.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct{ l Logger }

func (a leveledLogger) Error(msg string, kv ...interface{}) { a.l.Errorf("%s%s", msg, pairs(kv)) }
func (a leveledLogger) Info(msg string, kv ...interface{})  { a.l.Debugf("%s%s", msg, pairs(kv)) }
func (a leveledLogger) Debug(msg string, kv ...interface{}) { a.l.Debugf("%s%s", msg, pairs(kv)) }
func (a leveledLogger) Warn(msg string, kv ...interface{})  { a.l.Warnf("%s%s", msg, pairs(kv)) }

func pairs(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, " %v", kv[len(kv)-1])
	}
	return b.String()
}
