package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunLog writes a timestamped, printf-style log file for one run.
// A nil *RunLog discards everything.
type RunLog struct {
	verbose  bool
	logger   *log.Logger
	file     *os.File
	filePath string
	runID    string
	mu       sync.Mutex
}

// Setup creates crfboost_run_<timestamp>.log in logDir. It returns nil when
// noLog is set.
func Setup(logDir, runID string, verbose, noLog bool) (*RunLog, error) {
	if noLog {
		return nil, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(logDir, fmt.Sprintf("crfboost_run_%s.log", timestamp))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", filePath, err)
	}

	l := &RunLog{
		verbose:  verbose,
		logger:   log.New(file, "", log.LstdFlags),
		file:     file,
		filePath: filePath,
		runID:    runID,
	}

	l.Info("crfboost starting (run %s)", runID)
	if verbose {
		l.Info("Debug level logging enabled")
	}
	l.Info("Log file: %s", filePath)

	return l, nil
}

// Close closes the log file.
func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path to the log file.
func (l *RunLog) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// RunID returns the run identifier written in the header.
func (l *RunLog) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *RunLog) printf(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.logger.Printf("["+level+"] "+format, args...)
}

// Info logs an info-level message.
func (l *RunLog) Info(format string, args ...any) { l.printf("INFO", format, args...) }

// Debug logs a debug-level message when verbose logging is enabled.
func (l *RunLog) Debug(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.printf("DEBUG", format, args...)
}

// Warn logs a warning message.
func (l *RunLog) Warn(format string, args ...any) { l.printf("WARN", format, args...) }

// Error logs an error message.
func (l *RunLog) Error(format string, args ...any) { l.printf("ERROR", format, args...) }

// Writer returns an io.Writer appending to the log file, safe for the
// structured logger to share with printf-style calls.
func (l *RunLog) Writer() io.Writer {
	if l == nil || l.file == nil {
		return io.Discard
	}
	return lockedWriter{l}
}

type lockedWriter struct{ l *RunLog }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.file.Write(p)
}
