// Package logging configures slog for the extraction service: text output to
// the console plus JSON output to weekly-rotated, size-capped log files.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RotatingWriter manages rotating log files with weekly retention. Files are
// named extract-YYYY-Www.log, with _NN suffixes when the size cap forces an
// extra file inside one week.
type RotatingWriter struct {
	logDir      string
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingWriter creates a rotating writer keeping retentionWeeks of files
// and splitting files larger than maxFileSize bytes.
func NewRotatingWriter(logDir string, retentionWeeks int, maxFileSize int64) *RotatingWriter {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingWriter{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// weekKey returns the ISO week key in YYYY-Www format.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write writes one log record to the current file, rotating first when the
// week rolls over or the size cap is reached.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(time.Now())
	needsRotation := rw.currentWeek != week
	if rw.maxFileSize > 0 && !needsRotation {
		size := rw.currentSize.Load()
		if size >= rw.maxFileSize || size+int64(len(p)) > rw.maxFileSize {
			needsRotation = true
			rw.currentSize.Store(rw.maxFileSize)
		}
	}

	if needsRotation {
		if err := rw.rotate(week); err != nil {
			return 0, err
		}
	}

	if rw.currentFile == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rw.currentFile.Write(p)
	rw.currentSize.Add(int64(n))
	return n, err
}

// rotate opens the right file for targetWeek (caller must hold the lock).
func (rw *RotatingWriter) rotate(targetWeek string) error {
	if rw.currentFile != nil {
		if err := rw.currentFile.Close(); err != nil {
			fmt.Printf("Warning: failed to close log file during rotation: %v\n", err)
		}
	}

	sizeRotation := rw.maxFileSize > 0 && rw.currentSize.Load() >= rw.maxFileSize
	fileName, fresh := rw.pickLogFile(targetWeek, sizeRotation)

	logPath := filepath.Join(rw.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rw.currentFile = file
	rw.currentWeek = targetWeek

	if fresh {
		rw.currentSize.Store(0)
	} else if info, err := os.Stat(logPath); err == nil {
		rw.currentSize.Store(info.Size())
	}

	return nil
}

// pickLogFile chooses the file name for targetWeek, moving to a numbered
// sibling when the base file already hit the size cap.
func (rw *RotatingWriter) pickLogFile(targetWeek string, sizeRotation bool) (string, bool) {
	baseName := fmt.Sprintf("extract-%s.log", targetWeek)
	basePath := filepath.Join(rw.logDir, baseName)

	if !sizeRotation {
		if info, err := os.Stat(basePath); err != nil || rw.maxFileSize == 0 || info.Size() < rw.maxFileSize {
			return baseName, false
		}
	}

	highest, lastPath, lastSize := rw.highestNumberedFile(targetWeek)
	if lastPath != "" && lastSize < rw.maxFileSize {
		return filepath.Base(lastPath), false
	}

	return fmt.Sprintf("extract-%s_%02d.log", targetWeek, highest+1), true
}

var numberedLogRe = regexp.MustCompile(`extract-\d{4}-W\d{2}_(\d{2})\.log$`)

// highestNumberedFile finds the highest _NN sibling for the week.
func (rw *RotatingWriter) highestNumberedFile(targetWeek string) (int, string, int64) {
	pattern := fmt.Sprintf("extract-%s_??.log", targetWeek)
	matches, _ := filepath.Glob(filepath.Join(rw.logDir, pattern))

	highest := 0
	var lastPath string
	var lastSize int64

	for _, match := range matches {
		m := numberedLogRe.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num > highest {
			highest = num
			lastPath = match
			if info, err := os.Stat(match); err == nil {
				lastSize = info.Size()
			} else {
				lastSize = 0
			}
		}
	}

	return highest, lastPath, lastSize
}

// cleanupOldLogs removes log files older than the retention period.
func (rw *RotatingWriter) cleanupOldLogs() error {
	entries, err := os.ReadDir(rw.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rw.retention)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "extract-") || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rw.logDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		// Console only, to avoid recursing into the logger being cleaned.
		fmt.Printf("Cleaned up %d old log files\n", deleted)
	}

	return nil
}

// Close stops background cleanup and closes the current file.
func (rw *RotatingWriter) Close() error {
	rw.cancel()

	select {
	case <-rw.cleanupDone:
	case <-time.After(5 * time.Second):
		fmt.Printf("Warning: log cleanup goroutine did not shut down gracefully\n")
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.currentFile != nil {
		return rw.currentFile.Close()
	}
	return nil
}

// SetupLogger configures slog to log to both console and rotating file.
func SetupLogger(logDir string, retentionWeeks int, maxFileSize int64) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory, using console only", "error", err)
		return logger
	}

	writer := NewRotatingWriter(logDir, retentionWeeks, maxFileSize)

	writer.mu.Lock()
	rotateErr := writer.rotate(weekKey(time.Now()))
	writer.mu.Unlock()
	if rotateErr != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating log file, using console only", "error", rotateErr)
		return logger
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(writer.cleanupDone)

		for {
			select {
			case <-writer.ctx.Done():
				return
			case <-ticker.C:
				if err := writer.cleanupOldLogs(); err != nil {
					slog.Warn("Failed to cleanup old logs", "error", err)
				}
			}
		}
	}()

	// Console gets text format, file gets JSON for easier parsing.
	fileHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
