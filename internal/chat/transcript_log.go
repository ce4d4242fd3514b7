package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// TranscriptLogConfig controls NDJSON transcript logging.
type TranscriptLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// TranscriptEvent is one line in a conversation's NDJSON log.
type TranscriptEvent struct {
	Timestamp time.Time `json:"ts"`
	VisitorID string    `json:"visitor_id"`
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	Speaker   string    `json:"speaker,omitempty"`
	EventType string    `json:"event_type"`
	Text      string    `json:"text,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	LeadID    string    `json:"lead_id,omitempty"`
}

// TranscriptLogger records conversation events. Log must never block the caller.
type TranscriptLogger interface {
	Log(event TranscriptEvent)
	Close() error
}

type noopTranscriptLogger struct{}

func (noopTranscriptLogger) Log(TranscriptEvent) {}
func (noopTranscriptLogger) Close() error        { return nil }

// NoopTranscriptLogger returns a logger that discards every event.
func NoopTranscriptLogger() TranscriptLogger {
	return noopTranscriptLogger{}
}

// fileTranscriptLogger appends events to <dir>/<visitor>/<session>.ndjson
// from a single writer goroutine fed by a bounded queue.
type fileTranscriptLogger struct {
	dir    string
	queue  chan TranscriptEvent
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once

	// mu guards closed and the send on queue, so Log never races Close.
	mu      sync.Mutex
	closed  bool
	dropped int64
}

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NewTranscriptLogger creates a transcript logger. A disabled config yields a no-op logger.
func NewTranscriptLogger(cfg TranscriptLogConfig, logger *slog.Logger) (TranscriptLogger, error) {
	if !cfg.Enabled {
		return noopTranscriptLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create transcript log dir: %w", err)
	}

	l := &fileTranscriptLogger{
		dir:    cfg.Dir,
		queue:  make(chan TranscriptEvent, cfg.QueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *fileTranscriptLogger) Log(event TranscriptEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Debug("Transcript logger closed, dropping event", "visitor_id", event.VisitorID, "event_type", event.EventType)
		return
	}
	var dropped int64
	select {
	case l.queue <- event:
	default:
		l.dropped++
		dropped = l.dropped
	}
	l.mu.Unlock()

	if dropped%100 == 1 {
		l.logger.Warn("Transcript log queue full, dropping events", "dropped_total", dropped)
	}
}

func (l *fileTranscriptLogger) Close() error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	})
	<-l.done
	return nil
}

func (l *fileTranscriptLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("Failed to write transcript event", "visitor_id", event.VisitorID, "error", err)
		}
	}
}

func (l *fileTranscriptLogger) write(event TranscriptEvent) error {
	visitorDir := filepath.Join(l.dir, safePathSegment(event.VisitorID))
	if err := os.MkdirAll(visitorDir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(visitorDir, safePathSegment(event.SessionID)+".ndjson")

	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func safePathSegment(s string) string {
	s = unsafePathChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return s
}
