package lead

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smagents/landing/internal/domain"
	"github.com/smagents/landing/internal/store"
)

// WorkerConfig controls the background sweep.
type WorkerConfig struct {
	Interval        time.Duration
	MaxAttempts     int
	BaseDelay       time.Duration
	StaleAfter      time.Duration // pending leads older than this were interrupted
	ConversationTTL time.Duration // 0 disables conversation cleanup
}

// Worker re-delivers failed leads and expires idle conversations.
type Worker struct {
	repo       store.Repository
	dispatcher *Dispatcher
	cfg        WorkerConfig
	now        func() time.Time
}

// NewWorker creates a sweep worker.
func NewWorker(repo store.Repository, dispatcher *Dispatcher, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Minute
	}
	return &Worker{repo: repo, dispatcher: dispatcher, cfg: cfg, now: time.Now}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Lead worker started", "interval", w.cfg.Interval, "max_attempts", w.cfg.MaxAttempts)

		for {
			select {
			case <-ticker.C:
				w.Sweep(ctx)
			case <-ctx.Done():
				slog.Info("Lead worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep performs one pass and returns how many leads were delivered.
func (w *Worker) Sweep(ctx context.Context) int {
	delivered := w.retryLeads(ctx)

	if w.cfg.ConversationTTL > 0 {
		if deleted, err := w.repo.CleanupExpiredSessions(ctx, w.cfg.ConversationTTL); err != nil {
			slog.Error("Lead worker failed to cleanup expired conversations", "error", err)
		} else if deleted > 0 {
			slog.Info("Lead worker cleaned up expired conversations", "count", deleted)
		}
	}
	return delivered
}

func (w *Worker) retryLeads(ctx context.Context) int {
	now := w.now()
	leads, err := w.repo.ListRetryableLeads(ctx, w.cfg.MaxAttempts, now.Add(-w.cfg.StaleAfter))
	if err != nil {
		slog.Error("Lead worker failed to list retryable leads", "error", err)
		return 0
	}
	if len(leads) == 0 {
		return 0
	}

	delivered := 0
	for _, l := range leads {
		if l.Status == domain.LeadFailed && l.NextAttemptAt(w.cfg.BaseDelay).After(now) {
			continue
		}

		err := w.dispatcher.Deliver(ctx, l.LeadID)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrDeliveryInProgress):
			slog.Debug("Lead worker skipped in-flight lead", "lead_id", l.LeadID)
		default:
			slog.Warn("Lead worker retry failed", "lead_id", l.LeadID, "attempts", l.Attempts+1, "error", err)
		}
	}

	if delivered > 0 {
		slog.Info("Lead worker re-delivered leads", "count", delivered)
	}
	return delivered
}
