// Package logger implements the logging port with log/slog.
//
// Records are rendered by PrettyHandler on terminals and by slog's JSON handler
// when machine-readable output is requested. Errors are expanded into their zerr
// cause chain together with the metadata attached at each level.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/ui/style"
)

var _ ports.Logger = (*Logger)(nil)

// zerrError is the part of *zerr.Error the formatter relies on.
type zerrError interface {
	Message() string
	Metadata() map[string]any
}

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	output   io.Writer
	jsonMode bool
	plain    bool
}

// New creates a Logger writing pretty records to stderr.
func New() *Logger {
	l := &Logger{output: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput updates the output destination. A nil writer selects stderr.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty records, keeping the output destination.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// SetColor enables or disables colors in pretty records.
func (l *Logger) SetColor(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.plain = !enable
	l.rebuild()
}

// rebuild must be called with l.mu held.
func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if l.jsonMode {
		l.logger = slog.New(slog.NewJSONHandler(l.output, opts))
		return
	}
	if l.plain {
		l.logger = slog.New(NewPlainHandler(l.output, opts))
		return
	}
	l.logger = slog.New(NewPrettyHandler(l.output, opts))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its cause chain. Nil errors are ignored.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}
	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}

// collectErrorEntries walks the zerr chain of err. The first error that is not a
// zerr error ends the chain with its full message. Metadata of wrappers without a
// message of their own is attached to the next entry.
func collectErrorEntries(err error) []ErrorEntry {
	var (
		entries []ErrorEntry
		pending map[string]any
	)
	for current := err; current != nil; current = errors.Unwrap(current) {
		z, ok := current.(zerrError)
		if !ok {
			entry := ErrorEntry{Message: current.Error()}
			mergeMetadata(&entry, pending)
			return append(entries, entry)
		}
		if z.Message() == "" {
			pending = mergedMaps(pending, z.Metadata())
			continue
		}
		entry := ErrorEntry{Message: z.Message(), Metadata: z.Metadata()}
		mergeMetadata(&entry, pending)
		pending = nil
		entries = append(entries, entry)
	}
	if len(pending) > 0 && len(entries) > 0 {
		mergeMetadata(&entries[len(entries)-1], pending)
	}
	return entries
}

func mergedMaps(a, b map[string]any) map[string]any {
	if len(b) == 0 {
		return a
	}
	if a == nil {
		a = make(map[string]any, len(b))
	}
	for k, v := range b {
		a[k] = v
	}
	return a
}

func mergeMetadata(entry *ErrorEntry, extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	entry.Metadata = mergedMaps(entry.Metadata, extra)
}

// formatErrorEntries renders entries as:
//
//	Error: outer
//	       key: value
//
//	  Caused by:
//	    → inner
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    "+style.Arrow+" ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range sortedKeys(entry.Metadata) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
