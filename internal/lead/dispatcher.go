package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smagents/landing/internal/conversation"
	"github.com/smagents/landing/internal/domain"
	"github.com/smagents/landing/internal/store"
)

var (
	// ErrDeliveryInProgress is returned when the lead is already being delivered.
	ErrDeliveryInProgress = errors.New("lead delivery already in progress")
	// ErrUnknownLead is returned when the lead row does not exist.
	ErrUnknownLead = errors.New("unknown lead")
)

// Dispatcher persists completed records as leads and delivers them, allowing
// at most one in-flight delivery per lead.
type Dispatcher struct {
	repo      store.Repository
	submitter Submitter
	timeout   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewDispatcher creates a dispatcher. timeout bounds each delivery attempt.
func NewDispatcher(repo store.Repository, submitter Submitter, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		repo:      repo,
		submitter: submitter,
		timeout:   timeout,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

func (d *Dispatcher) acquire(leadID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inflight[leadID]; busy {
		return false
	}
	d.inflight[leadID] = struct{}{}
	return true
}

func (d *Dispatcher) release(leadID string) {
	d.mu.Lock()
	delete(d.inflight, leadID)
	d.mu.Unlock()
}

// NewID returns a fresh lead ID.
func (d *Dispatcher) NewID() string {
	return uuid.NewString()
}

// Create stores record as a pending lead under leadID. Creating a lead that
// already exists leaves the stored row untouched.
func (d *Dispatcher) Create(ctx context.Context, leadID, visitorID, sessionID string, record conversation.Record) error {
	lead := &domain.Lead{
		LeadID:    leadID,
		VisitorID: visitorID,
		SessionID: sessionID,
		Name:      record.Name,
		Sphere:    record.Sphere,
		Process:   record.Process,
		Contact:   record.Contact,
		Status:    domain.LeadPending,
		CreatedAt: d.now(),
	}
	if err := d.repo.CreateLead(ctx, lead); err != nil {
		return fmt.Errorf("store lead: %w", err)
	}
	return nil
}

// Deliver submits the stored lead. A lead that is already delivered returns
// nil without calling the submitter again.
func (d *Dispatcher) Deliver(ctx context.Context, leadID string) error {
	if !d.acquire(leadID) {
		return ErrDeliveryInProgress
	}
	defer d.release(leadID)

	lead, err := d.repo.GetLead(ctx, leadID)
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}
	if lead == nil {
		return ErrUnknownLead
	}
	if lead.Status == domain.LeadDelivered {
		return nil
	}

	// A visitor closing the tab must not abort an attempt that already started.
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	record := conversation.Record{Name: lead.Name, Sphere: lead.Sphere, Process: lead.Process, Contact: lead.Contact}
	submitErr := d.submitter.Submit(deliverCtx, leadID, record)
	at := d.now()

	if submitErr != nil {
		slog.Warn("Lead delivery failed", "lead_id", leadID, "attempt", lead.Attempts+1, "error", submitErr)
		if err := d.repo.MarkLeadFailed(deliverCtx, leadID, submitErr.Error(), at); err != nil {
			slog.Error("Failed to record lead delivery failure", "lead_id", leadID, "error", err)
		}
		return fmt.Errorf("deliver lead %s: %w", leadID, submitErr)
	}

	if err := d.repo.MarkLeadDelivered(deliverCtx, leadID, at); err != nil {
		// The endpoint has the record; the idempotency key covers a repeat.
		slog.Error("Failed to mark lead delivered", "lead_id", leadID, "error", err)
	}
	slog.Info("Lead delivered", "lead_id", leadID, "attempt", lead.Attempts+1)
	return nil
}

// Status returns the current delivery status of a lead.
func (d *Dispatcher) Status(ctx context.Context, leadID string) (domain.LeadStatus, error) {
	lead, err := d.repo.GetLead(ctx, leadID)
	if err != nil {
		return "", fmt.Errorf("load lead: %w", err)
	}
	if lead == nil {
		return "", ErrUnknownLead
	}
	return lead.Status, nil
}
