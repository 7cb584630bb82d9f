// Package testlogger provides loggers for use in tests.
package testlogger

import (
	"os"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a new log.Logger bound to a test. Every level is logged.
func New(t testing.TB) log.Logger {
	return NewWithLevel(t, level.AllowAll())
}

// NewWithLevel returns a new log.Logger bound to a test which only logs lines
// permitted by lvl.
func NewWithLevel(t testing.TB, lvl level.Option) log.Logger {
	t.Helper()

	l := log.NewSyncLogger(log.NewLogfmtLogger(os.Stderr))
	l = level.NewFilter(l, lvl)
	l = log.With(l,
		"test", t.Name(),
		"ts", log.Valuer(testTimestamp),
	)

	return l
}

// testTimestamp is a log.Valuer that returns the timestamp without the date
// or timezone, reducing the noise in the test.
func testTimestamp() interface{} {
	return time.Now().UTC().Format("15:04:05.000")
}
