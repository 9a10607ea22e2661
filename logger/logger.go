package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel maps a config string to a Level. Unknown values map to INFO.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, true
	case "info":
		return INFO, true
	case "warn", "warning":
		return WARN, true
	case "error":
		return ERROR, true
	default:
		return INFO, false
	}
}

// Logger provides structured logging with levels
type Logger struct {
	mu       sync.Mutex
	entry    *logrus.Logger
	file     *lumberjack.Logger
	filePath string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

func newLogger(out io.Writer, level Level) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level.logrus())
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return &Logger{entry: l}
}

// Init initializes the default logger with optional file output
func Init(logDir string, minLevel Level) error {
	var initErr error
	once.Do(func() {
		defaultLogger = newLogger(os.Stdout, minLevel)

		if logDir != "" {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				initErr = fmt.Errorf("failed to create log directory: %w", err)
				return
			}

			logPath := filepath.Join(logDir, "logviewer.log")
			defaultLogger.file = &lumberjack.Logger{
				Filename:   logPath,
				MaxSize:    5,
				MaxBackups: 3,
				MaxAge:     30,
			}
			defaultLogger.filePath = logPath
			defaultLogger.entry.SetOutput(io.MultiWriter(os.Stdout, defaultLogger.file))
		}
	})
	return initErr
}

// Close closes the log file if one is open
func Close() {
	if defaultLogger != nil && defaultLogger.file != nil {
		defaultLogger.file.Close()
	}
}

// Path returns the active log file, or "" when logging to stdout only.
func Path() string {
	if defaultLogger == nil {
		return ""
	}
	return defaultLogger.filePath
}

// SetLevel sets the minimum log level
func SetLevel(level Level) {
	l := getDefaultLogger()
	l.mu.Lock()
	l.entry.SetLevel(level.logrus())
	l.mu.Unlock()
}

// SetOutput redirects the default logger, mostly for tests.
func SetOutput(w io.Writer) {
	l := getDefaultLogger()
	l.mu.Lock()
	l.entry.SetOutput(w)
	l.mu.Unlock()
}

func getDefaultLogger() *Logger {
	if defaultLogger == nil {
		defaultLogger = newLogger(os.Stdout, INFO)
	}
	return defaultLogger
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	lvl := level.logrus()
	if !l.entry.IsLevelEnabled(lvl) {
		return
	}

	// Skip log and the public func to reach the caller
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	l.entry.WithField("caller", caller).Logf(lvl, format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	getDefaultLogger().log(DEBUG, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	getDefaultLogger().log(INFO, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	getDefaultLogger().log(WARN, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	getDefaultLogger().log(ERROR, format, args...)
}

// Fatal logs and exits the process with status 1.
func Fatal(format string, args ...interface{}) {
	getDefaultLogger().entry.Fatalf(format, args...)
}

// WithError logs an error with the error object
func WithError(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	getDefaultLogger().log(ERROR, "%s: %v", message, err)
}

// WarnWithError logs a warning with the error object
func WarnWithError(err error, format string, args ...interface{}) {
	if err == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	getDefaultLogger().log(WARN, "%s: %v", message, err)
}
