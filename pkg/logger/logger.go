package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Leveled logfmt logger for the widgets service.
// - components receive a log.Logger and log key/value pairs through level.X(l).Log
// - startup code uses the package-level Infof/Warnf/... helpers
// - Init(level) rebuilds the package default

var (
	mu       sync.RWMutex
	out      io.Writer  = os.Stdout
	current  string     = "info"
	fallback log.Logger = New(os.Stdout, "info")
)

// normalize maps user input onto debug|info|warn|error. Unknown input is info.
func normalize(l string) string {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return "debug"
	case "warn", "warning":
		return "warn"
	case "error", "fatal":
		return "error"
	default:
		return "info"
	}
}

func allow(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// New returns a logfmt logger writing to w that drops entries below lvl.
func New(w io.Writer, lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	l = level.NewFilter(l, allow(normalize(lvl)))
	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

// Init sets the global log level (case-insensitive: debug, info, warn, error).
// Call early during startup. Default level is info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	current = normalize(l)
	fallback = New(out, current)
}

// Default returns the package logger for injection into components.
func Default() log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return fallback
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debugf(format string, v ...interface{}) {
	_ = level.Debug(Default()).Log("msg", fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	_ = level.Info(Default()).Log("msg", fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	_ = level.Warn(Default()).Log("msg", fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	_ = level.Error(Default()).Log("msg", fmt.Sprintf(format, v...))
}

// Fatalf logs at error level regardless of the filter and exits.
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	w := out
	mu.RUnlock()
	l := log.With(log.NewLogfmtLogger(log.NewSyncWriter(w)), "ts", log.DefaultTimestampUTC)
	_ = level.Error(l).Log("msg", fmt.Sprintf(format, v...))
	os.Exit(1)
}
