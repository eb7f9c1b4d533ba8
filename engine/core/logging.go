package core

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

// LogLevel is the textual log level accepted in the configuration file.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					// the Log* helpers add one frame
					CallerOffset: 1,
					Prefix:       "Prism 🔺 ",
				})
				l.SetLevel(log.DebugLevel)
				singleton = &logger{l}
			})
	}
	return singleton
}

// ParseLogLevel maps a configuration level onto the logger levels.
func ParseLogLevel(level LogLevel) (log.Level, error) {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug:
		return log.DebugLevel, nil
	case LogLevelInfo, "":
		return log.InfoLevel, nil
	case LogLevelWarn, "warning":
		return log.WarnLevel, nil
	case LogLevelError:
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("%w: unknown log level `%s`", ErrConfig, level)
}

// SetLogLevel changes the level of the global logger.
func SetLogLevel(level LogLevel) error {
	l, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(l)
	return nil
}

// SetLogPrefix replaces the prefix printed in front of every record.
func SetLogPrefix(prefix string) {
	getLogger().SetPrefix(prefix)
}

// Log writes a structured record with key/value pairs.
func Log(level log.Level, msg string, keyvals ...interface{}) {
	getLogger().Log(level, msg, keyvals...)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
