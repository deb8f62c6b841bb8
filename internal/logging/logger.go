// Package logging writes structured JSON log lines compatible with the
// Cloud Logging agent.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/andywolf/jiracomments/internal/security"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// rank orders severities for filtering.
func (s Severity) rank() int {
	switch s {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	default:
		return 1
	}
}

// LogEntry represents a structured log entry for Cloud Logging
type LogEntry struct {
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Fields    map[string]any    `json:"fields,omitempty"`
}

// Logger writes one sanitized JSON object per line. It is safe for
// concurrent use; loggers derived with With share the writer and its lock.
type Logger struct {
	writer      io.Writer
	mu          *sync.Mutex
	runID       string
	labels      map[string]string
	minSeverity Severity
	sanitizer   *security.LogSanitizer
	now         func() time.Time
}

// Option configures a Logger
type Option func(*Logger)

// WithWriter sets a custom writer for log output
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		l.writer = w
	}
}

// WithLabels adds custom labels to all log entries
func WithLabels(labels map[string]string) Option {
	return func(l *Logger) {
		for k, v := range labels {
			l.labels[k] = v
		}
	}
}

// WithMinSeverity drops entries below level
func WithMinSeverity(level Severity) Option {
	return func(l *Logger) {
		l.minSeverity = level
	}
}

// WithSanitizer replaces the default sanitizer, e.g. one that knows the
// configured password.
func WithSanitizer(s *security.LogSanitizer) Option {
	return func(l *Logger) {
		l.sanitizer = s
	}
}

// New creates a Logger writing to stderr at INFO and above.
func New(opts ...Option) *Logger {
	l := &Logger{
		writer:      os.Stderr,
		mu:          &sync.Mutex{},
		labels:      map[string]string{"component": "jira-comments"},
		minSeverity: SeverityInfo,
		sanitizer:   security.NewLogSanitizer(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return New(WithWriter(io.Discard))
}

// WithRunID returns a copy of l that stamps every entry with runID.
func (l *Logger) WithRunID(runID string) *Logger {
	c := *l
	c.runID = runID
	return &c
}

// With returns a copy of l with extra labels.
func (l *Logger) With(labels map[string]string) *Logger {
	c := *l
	c.labels = make(map[string]string, len(l.labels)+len(labels))
	for k, v := range l.labels {
		c.labels[k] = v
	}
	for k, v := range labels {
		c.labels[k] = v
	}
	return &c
}

// Log writes a structured log entry
func (l *Logger) Log(severity Severity, message string, fields map[string]any) {
	if severity.rank() < l.minSeverity.rank() {
		return
	}

	entry := LogEntry{
		Severity:  severity,
		Message:   l.sanitizer.Sanitize(message),
		Timestamp: l.now().UTC(),
		RunID:     l.runID,
		Labels:    l.sanitizer.SanitizeMap(l.labels),
		Fields:    l.sanitizeFields(fields),
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		fmt.Fprintf(l.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *Logger) sanitizeFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = l.sanitizer.Sanitize(s)
			continue
		}
		out[k] = v
	}
	return out
}

// Debugf logs at DEBUG severity
func (l *Logger) Debugf(format string, args ...any) {
	l.Log(SeverityDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs at INFO severity
func (l *Logger) Info(message string) {
	l.Log(SeverityInfo, message, nil)
}

// Infof logs a formatted message at INFO severity
func (l *Logger) Infof(format string, args ...any) {
	l.Log(SeverityInfo, fmt.Sprintf(format, args...), nil)
}

// Warningf logs a formatted message at WARNING severity
func (l *Logger) Warningf(format string, args ...any) {
	l.Log(SeverityWarning, fmt.Sprintf(format, args...), nil)
}

// Error logs at ERROR severity
func (l *Logger) Error(message string) {
	l.Log(SeverityError, message, nil)
}

// Errorf logs a formatted message at ERROR severity
func (l *Logger) Errorf(format string, args ...any) {
	l.Log(SeverityError, fmt.Sprintf(format, args...), nil)
}
