package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// LogFileName is the file created inside the configured log directory
const LogFileName = "buildenv.log"

type preEntry struct {
	level hclog.Level
	msg   string
}

var (
	mu       sync.Mutex
	logger   = newLogger(os.Stderr, hclog.Info, false)
	output   io.Writer = os.Stdout
	logFile  *os.File
	preLevel = hclog.Info
	preLogs  []preEntry
)

func newLogger(w io.Writer, level hclog.Level, json bool) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "buildenv",
		Level:      level,
		Output:     w,
		JSONFormat: json,
		Color:      hclog.ColorOff,
	})
}

// ParseLevel converts a configuration level name to an hclog level.
// Unknown or empty names map to info.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(strings.TrimSpace(level))
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// InitLogger configures the global logger.
// logPath is a directory; when set, logs are also appended to LogFileName inside it.
// Messages recorded with PreLog are flushed through the new logger.
func InitLogger(logPath string, level string, json bool) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stderr
	if logPath != "" {
		if err := os.MkdirAll(logPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(logPath, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}

	lvl := ParseLevel(level)
	logger = newLogger(w, lvl, json)

	flushPreLogs()
	return nil
}

// FlushPreLogs writes buffered PreLog messages through the current logger.
// Used when startup fails before InitLogger could run.
func FlushPreLogs() {
	mu.Lock()
	defer mu.Unlock()
	flushPreLogs()
}

func flushPreLogs() {
	for _, e := range preLogs {
		if e.level >= preLevel {
			logger.Log(e.level, e.msg)
		}
	}
	preLogs = nil
}

// Close releases the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	logger = newLogger(os.Stderr, logger.GetLevel(), false)
	return err
}

// SetOutput redirects LogOutput. Used by commands that capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// PreLog records a message emitted before InitLogger has run
func PreLog(level string, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	preLogs = append(preLogs, preEntry{level: ParseLevel(level), msg: fmt.Sprintf(format, args...)})
}

// SetPreLogLevel sets the threshold applied to buffered PreLog messages
func SetPreLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	preLevel = ParseLevel(level)
}

func current() hclog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func LogDebug(format string, args ...interface{}) {
	current().Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	current().Info(fmt.Sprintf(format, args...))
}

func LogWarn(format string, args ...interface{}) {
	current().Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	current().Error(fmt.Sprintf(format, args...))
}

// LogOutput prints user-facing output, independent of the log level
func LogOutput(format string, args ...interface{}) {
	mu.Lock()
	w := output
	mu.Unlock()
	fmt.Fprintf(w, format+"\n", args...)
}
