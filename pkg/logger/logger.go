package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger writes structured JSON log lines. It is constructed once at startup
// and passed explicitly to every component that logs; there is no package
// global.
type Logger struct {
	output io.Writer
}

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{output: output}
}

func (l *Logger) log(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		UserID:    userID,
		Action:    action,
		Details:   details,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	data, _ := json.Marshal(entry)

	if l.output == os.Stdout {
		var colorCode string
		switch level {
		case LevelError:
			colorCode = "\033[31m"
		case LevelWarn:
			colorCode = "\033[33m"
		default:
			colorCode = "\033[36m"
		}
		fmt.Fprintf(l.output, "%s%s\033[0m\n", colorCode, string(data))
		return
	}

	fmt.Fprintf(l.output, "%s\n", string(data))
}

func (l *Logger) Info(action string, details map[string]interface{}) {
	l.log(LevelInfo, action, nil, details, nil)
}

func (l *Logger) InfoWithUser(userID string, action string, details map[string]interface{}) {
	l.log(LevelInfo, action, &userID, details, nil)
}

func (l *Logger) Warn(action string, details map[string]interface{}) {
	l.log(LevelWarn, action, nil, details, nil)
}

func (l *Logger) WarnWithUser(userID string, action string, details map[string]interface{}) {
	l.log(LevelWarn, action, &userID, details, nil)
}

func (l *Logger) Error(action string, err error, details map[string]interface{}) {
	l.log(LevelError, action, nil, details, err)
}

func (l *Logger) ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	l.log(LevelError, action, &userID, details, err)
}

// Discard returns a logger whose output is thrown away, for use in tests.
func Discard() *Logger {
	return &Logger{output: io.Discard}
}
