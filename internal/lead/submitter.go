// Package lead delivers completed conversation records to the external
// collection endpoint and keeps failed deliveries for retry.
package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smagents/landing/internal/conversation"
)

// Submitter hands a completed record to the collection endpoint.
type Submitter interface {
	Submit(ctx context.Context, leadID string, record conversation.Record) error
}

// ErrWebhookNotConfigured is returned by a WebhookSubmitter with no URL.
var ErrWebhookNotConfigured = errors.New("lead webhook not configured")

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %s", e.Status)
}

// WebhookSubmitter POSTs records as JSON to a configured URL.
type WebhookSubmitter struct {
	url    string
	client *resty.Client
}

// NewWebhookSubmitter creates a submitter for url with the given per-request timeout.
func NewWebhookSubmitter(url string, timeout time.Duration) *WebhookSubmitter {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "smagents-landing/1.0")

	return &WebhookSubmitter{url: url, client: client}
}

// Submit sends the record. The lead ID travels as Idempotency-Key so the
// endpoint can drop duplicates from retries.
func (w *WebhookSubmitter) Submit(ctx context.Context, leadID string, record conversation.Record) error {
	if w.url == "" {
		return ErrWebhookNotConfigured
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", leadID).
		SetBody(record).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if !resp.IsSuccess() {
		return &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	return nil
}

// LogSubmitter is used when no webhook is configured: it logs the record and
// reports success. The lead row is still persisted by the dispatcher.
type LogSubmitter struct {
	logger *slog.Logger
}

// NewLogSubmitter creates a LogSubmitter writing to logger.
func NewLogSubmitter(logger *slog.Logger) *LogSubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSubmitter{logger: logger}
}

// Submit logs the record.
func (l *LogSubmitter) Submit(_ context.Context, leadID string, record conversation.Record) error {
	l.logger.Warn("Lead webhook not configured, lead kept locally only",
		"lead_id", leadID,
		"name", record.Name,
		"sphere", record.Sphere,
	)
	return nil
}
