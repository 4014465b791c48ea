package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type LogEntry struct {
	Timestamp   time.Time
	Type        string
	Message     string
	ExitCode    int
	ErrorDetail string
}

// LogFile is the append-only session log. Nothing in this package writes
// to the terminal: the terminal belongs to the wrapped shell.
var LogFile = defaultLogFile()

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cyrsh.log"
	}
	return filepath.Join(home, ".cyrsh.log")
}

// SetLogFile redirects logging to the given path.
func SetLogFile(path string) {
	if path != "" {
		LogFile = path
	}
}

// LogCommand logs a command execution with its exit code
func LogCommand(command string, exitCode int) error {
	entry := LogEntry{
		Timestamp: time.Now(),
		Type:      "COMMAND",
		Message:   command,
		ExitCode:  exitCode,
	}
	return saveLog(entry)
}

// LogError logs an error with proper formatting
func LogError(err error) error {
	if err == nil {
		return nil
	}

	entry := LogEntry{
		Timestamp:   time.Now(),
		Type:        "ERROR",
		Message:     err.Error(),
		ErrorDetail: err.Error(),
		ExitCode:    1,
	}
	return saveLog(entry)
}

// LogAlert logs an alert with proper formatting
func LogAlert(alert string) error {
	if alert == "" {
		return nil
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Type:      "ALERT",
		Message:   alert,
	}
	return saveLog(entry)
}

// Save log entry to file
func saveLog(entry LogEntry) error {
	f, err := os.OpenFile(LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var logLine string
	switch entry.Type {
	case "ERROR":
		logLine = fmt.Sprintf("[%s] %s: %s (Exit: %d) Error: %s\n",
			entry.Timestamp.Format(time.RFC3339),
			entry.Type,
			entry.Message,
			entry.ExitCode,
			entry.ErrorDetail)
	case "ALERT":
		logLine = fmt.Sprintf("[%s] %s: %s\n",
			entry.Timestamp.Format(time.RFC3339),
			entry.Type,
			entry.Message)
	default:
		logLine = fmt.Sprintf("[%s] %s: %s (Exit: %d)\n",
			entry.Timestamp.Format(time.RFC3339),
			entry.Type,
			entry.Message,
			entry.ExitCode)
	}

	if _, err := f.WriteString(logLine); err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}

	return nil
}
