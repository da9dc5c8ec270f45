// Package log is a small leveled wrapper around the standard logger.
//
// Messages are written as "LEVEL: message". The active level starts at
// WARNING and is moved by the -v and -q counters of the CLI.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging threshold. Lower values are more verbose.
type Level int

// Logging levels, spaced by ten so the CLI counters can step between them
const (
	DEBUG    Level = 10
	INFO     Level = 20
	WARNING  Level = 30
	ERROR    Level = 40
	CRITICAL Level = 50
)

// DefaultLevel is used when neither -v nor -q is given
const DefaultLevel = WARNING

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Level %d", int(l))
	}
}

var (
	mu     sync.Mutex
	level  = DefaultLevel
	std    = log.New(os.Stderr, "", 0)
	rotate *lumberjack.Logger
)

// LevelFromCounts derives the level from the -v and -q counters.
// Verbose takes precedence over quiet and never goes below DEBUG.
func LevelFromCounts(verbose, quiet int) Level {
	if verbose > 0 {
		l := DefaultLevel - Level(verbose)*DEBUG
		if l < DEBUG {
			l = DEBUG
		}
		return l
	}
	if quiet > 0 {
		return DefaultLevel + Level(quiet)*DEBUG
	}
	return DefaultLevel
}

// SetLevel changes the active threshold
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the active threshold
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// Enabled reports whether messages at l are emitted
func Enabled(l Level) bool {
	return l >= GetLevel()
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// EnableFile tees log output into a rotating file next to stderr.
// The returned closer flushes and releases the file.
func EnableFile(path string) (io.Closer, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}

	mu.Lock()
	defer mu.Unlock()
	rotate = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
	}
	std.SetOutput(io.MultiWriter(os.Stderr, rotate))
	return rotate, nil
}

func output(l Level, format string, v ...interface{}) {
	if !Enabled(l) {
		return
	}
	std.Output(3, l.String()+": "+fmt.Sprintf(format, v...))
}

// Debugf logs at DEBUG
func Debugf(format string, v ...interface{}) {
	output(DEBUG, format, v...)
}

// Infof logs at INFO
func Infof(format string, v ...interface{}) {
	output(INFO, format, v...)
}

// Warningf logs at WARNING
func Warningf(format string, v ...interface{}) {
	output(WARNING, format, v...)
}

// Errorf logs at ERROR
func Errorf(format string, v ...interface{}) {
	output(ERROR, format, v...)
}

// Fatalf logs at CRITICAL, regardless of the active level, and exits
func Fatalf(format string, v ...interface{}) {
	std.Output(2, CRITICAL.String()+": "+fmt.Sprintf(format, v...))
	os.Exit(1)
}
