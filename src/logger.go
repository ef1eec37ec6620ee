package stacksh

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Parse/unknown command errors (always shown)
)

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone     LogCategory = ""         // Uncategorized
	CatParse    LogCategory = "parse"    // Parser errors
	CatCommand  LogCategory = "command"  // Command execution
	CatVariable LogCategory = "variable" // Variable and scope operations
	CatIO       LogCategory = "io"       // External processes and format conversion
	CatAsync    LogCategory = "async"    // Futures and worker pools
	CatFlow     LogCategory = "flow"     // Flow control (if, while, break)
	CatList     LogCategory = "list"     // List, record and table operations
	CatType     LogCategory = "type"     // Type operations
	CatSystem   LogCategory = "system"   // Session lifecycle
)

// AllLogCategories returns every named category
func AllLogCategories() []LogCategory {
	return []LogCategory{CatParse, CatCommand, CatVariable, CatIO, CatAsync, CatFlow, CatList, CatType, CatSystem}
}

// Logger handles logging for a session. Messages at Notice and above are
// always emitted; lower levels need the logger enabled or their category
// switched on.
type Logger struct {
	enabled           bool
	enabledCategories map[LogCategory]bool
	backend           *logrus.Logger
}

// NewLogger creates a new logger writing to stderr
func NewLogger(enabled bool) *Logger {
	return NewLoggerWithWriter(enabled, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to out
func NewLoggerWithWriter(enabled bool, out io.Writer) *Logger {
	backend := logrus.New()
	backend.SetOutput(out)
	backend.SetLevel(logrus.TraceLevel)
	backend.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return &Logger{
		enabled:           enabled,
		enabledCategories: make(map[LogCategory]bool),
		backend:           backend,
	}
}

// Backend exposes the underlying logrus logger so callers can add hooks
func (l *Logger) Backend() *logrus.Logger {
	return l.backend
}

// SetEnabled enables or disables debug-level logging
func (l *Logger) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// EnableCategory turns on debug output for one category
func (l *Logger) EnableCategory(cat LogCategory) {
	l.enabledCategories[cat] = true
}

// EnableCategories parses a comma separated category list ("io,async")
func (l *Logger) EnableCategories(names string) {
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			for _, cat := range AllLogCategories() {
				l.enabledCategories[cat] = true
			}
			continue
		}
		l.enabledCategories[LogCategory(name)] = true
	}
}

func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	if level >= LevelNotice {
		return true
	}
	return l.enabled || l.enabledCategories[cat]
}

// Log writes a message at the given level and category
func (l *Logger) Log(level LogLevel, cat LogCategory, message string) {
	if !l.shouldLog(level, cat) {
		return
	}
	entry := logrus.NewEntry(l.backend)
	if cat != CatNone {
		entry = entry.WithField("category", string(cat))
	}
	switch level {
	case LevelTrace:
		entry.Trace(message)
	case LevelInfo, LevelNotice:
		entry.Info(message)
	case LevelDebug:
		entry.Debug(message)
	case LevelWarn:
		entry.Warn(message)
	default:
		entry.Error(message)
	}
}

// Debug logs an uncategorized debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LevelDebug, CatNone, fmt.Sprintf(format, args...))
}

// DebugCat logs a debug message for one category
func (l *Logger) DebugCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LevelWarn, CatNone, fmt.Sprintf(format, args...))
}

// WarnCat logs a warning for one category
func (l *Logger) WarnCat(cat LogCategory, format string, args ...interface{}) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LevelError, CatNone, fmt.Sprintf(format, args...))
}

// CommandError logs a failure raised while evaluating, with its position
// and the source line when known
func (l *Logger) CommandError(err *ErrorValue, sourceLines []string) {
	entry := logrus.NewEntry(l.backend).WithField("kind", string(err.Type))
	if err.Command != "" {
		entry = entry.WithField("command", err.Command)
	}
	message := err.Message
	if pos := err.Position; pos != nil {
		filename := pos.Filename
		if filename == "" {
			filename = "<input>"
		}
		message += fmt.Sprintf("\n  at line %d, column %d in %s", pos.Line, pos.Column, filename)
		if pos.Line >= 1 && pos.Line <= len(sourceLines) {
			message += formatSourceContext(pos, sourceLines)
		}
	}
	entry.Error(message)
}

// formatSourceContext shows the failing line with a caret under the column
func formatSourceContext(position *SourcePosition, lines []string) string {
	var message strings.Builder
	line := lines[position.Line-1]
	message.WriteString(fmt.Sprintf("\n  > %3d | %s", position.Line, line))
	if position.Column > 0 {
		caretLen := max(1, len([]rune(position.OriginalText)))
		message.WriteString("\n        | " + strings.Repeat(" ", position.Column-1) + strings.Repeat("^", caretLen))
	}
	return message.String()
}
