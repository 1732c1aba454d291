package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

const colorReset = "\033[0m"

// tag and color per line kind; success lines log at info level
var (
	debugLine   = lineStyle{LevelDebug, "[DEBUG]", "\033[90m"}
	infoLine    = lineStyle{LevelInfo, "[INFO] ", "\033[36m"}
	warnLine    = lineStyle{LevelWarn, "[WARN] ", "\033[33m"}
	errorLine   = lineStyle{LevelError, "[ERROR]", "\033[31m"}
	successLine = lineStyle{LevelInfo, "[OK]   ", "\033[32m"}
)

type lineStyle struct {
	level LogLevel
	tag   string
	color string
}

var (
	logMu           sync.Mutex
	output          io.Writer = os.Stderr
	currentLogLevel           = LevelInfo
	useColors                 = IsTerminal(os.Stderr.Fd())
)

// SetLogLevel sets the minimum log level to display
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	currentLogLevel = level
}

// Configure sets the level from the verbose/quiet flags. Quiet wins.
func Configure(verbose, quiet bool) {
	switch {
	case quiet:
		SetLogLevel(LevelError)
	case verbose:
		SetLogLevel(LevelDebug)
	default:
		SetLogLevel(LevelInfo)
	}
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LevelDebug)
	}
}

// SetQuiet enables quiet mode (errors only)
func SetQuiet(quiet bool) {
	if quiet {
		SetLogLevel(LevelError)
	}
}

// IsQuiet reports whether only errors are shown
func IsQuiet() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogLevel >= LevelError
}

// SetColors enables or disables colored output
func SetColors(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	useColors = enabled
}

// SetOutput redirects log lines and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := output
	output = w
	return prev
}

func colorize(color string, text string) string {
	if !useColors {
		return text
	}
	return color + text + colorReset
}

// logLine writes one line; the recorder and recognizers log from their
// own goroutines, so writes are serialized
func logLine(style lineStyle, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()

	if currentLogLevel > style.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "%s %s %s\n", colorize(style.color, time.Now().Format("15:04:05")), style.tag, msg)
}

// DebugLog logs debug messages
func DebugLog(format string, args ...interface{}) {
	logLine(debugLine, format, args...)
}

// InfoLog logs informational messages
func InfoLog(format string, args ...interface{}) {
	logLine(infoLine, format, args...)
}

// WarnLog logs warning messages
func WarnLog(format string, args ...interface{}) {
	logLine(warnLine, format, args...)
}

// ErrorLog logs error messages
func ErrorLog(format string, args ...interface{}) {
	logLine(errorLine, format, args...)
}

// SuccessLog logs success messages (always shown unless quiet)
func SuccessLog(format string, args ...interface{}) {
	logLine(successLine, format, args...)
}
