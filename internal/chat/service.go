// Package chat runs scripted lead-capture conversations for landing page
// visitors and exposes them over HTTP and WebSocket.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smagents/landing/internal/conversation"
	"github.com/smagents/landing/internal/domain"
	"github.com/smagents/landing/internal/store"
)

// ErrBusy is returned when another input for the same conversation is still
// being processed.
var ErrBusy = errors.New("conversation busy")

const interruptedReason = "submission interrupted"

// LeadDispatcher stores completed records and delivers them.
type LeadDispatcher interface {
	NewID() string
	Create(ctx context.Context, leadID, visitorID, sessionID string, record conversation.Record) error
	Deliver(ctx context.Context, leadID string) error
	Status(ctx context.Context, leadID string) (domain.LeadStatus, error)
}

// Result is the outcome of one visitor action.
type Result struct {
	State    conversation.State
	Accepted bool
}

// Service owns conversation state per (visitor, session) and executes the
// commands the reducer emits.
type Service struct {
	repo       store.Repository
	leads      LeadDispatcher
	log        TranscriptLogger
	replyDelay time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a conversation service. replyDelay is the pause before an
// accepted answer is committed.
func NewService(repo store.Repository, leads LeadDispatcher, log TranscriptLogger, replyDelay time.Duration) *Service {
	if log == nil {
		log = NoopTranscriptLogger()
	}
	return &Service{
		repo:       repo,
		leads:      leads,
		log:        log,
		replyDelay: replyDelay,
		inflight:   make(map[string]struct{}),
	}
}

func conversationKey(visitorID, sessionID string) string {
	return visitorID + ":" + sessionID
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// State returns the current conversation, creating it on first access. While
// an input is in flight the stored state is returned as is.
func (s *Service) State(ctx context.Context, visitorID, sessionID string) (conversation.State, error) {
	key := conversationKey(visitorID, sessionID)
	if !s.acquire(key) {
		st, _, err := s.load(ctx, visitorID, sessionID)
		return st, err
	}
	defer s.release(key)

	st, err := s.loadReconciled(ctx, visitorID, sessionID)
	if err != nil {
		return conversation.State{}, err
	}
	return st, nil
}

// Answer submits visitor text for the current prompt.
func (s *Service) Answer(ctx context.Context, visitorID, sessionID, text string) (Result, error) {
	return s.apply(ctx, visitorID, sessionID, conversation.Answer{Text: text})
}

// Reset restarts the conversation.
func (s *Service) Reset(ctx context.Context, visitorID, sessionID string) (Result, error) {
	return s.apply(ctx, visitorID, sessionID, conversation.Reset{})
}

// Retry re-submits the record after a failed delivery.
func (s *Service) Retry(ctx context.Context, visitorID, sessionID string) (Result, error) {
	return s.apply(ctx, visitorID, sessionID, conversation.Retry{})
}

func (s *Service) apply(ctx context.Context, visitorID, sessionID string, ev conversation.Event) (Result, error) {
	key := conversationKey(visitorID, sessionID)
	if !s.acquire(key) {
		return Result{}, ErrBusy
	}
	defer s.release(key)

	current, err := s.loadReconciled(ctx, visitorID, sessionID)
	if err != nil {
		return Result{}, err
	}

	next, cmd := conversation.Reduce(current, ev)
	if !changed(current, next) {
		return Result{State: current}, nil
	}

	if _, ok := ev.(conversation.Answer); ok {
		if err := s.pause(ctx); err != nil {
			return Result{State: current}, err
		}
	}

	if err := s.save(ctx, visitorID, sessionID, current, next); err != nil {
		return Result{State: current}, err
	}

	if cmd != nil {
		next, err = s.submit(ctx, visitorID, sessionID, next, cmd)
	}
	return Result{State: next, Accepted: true}, err
}

// submit persists and delivers the record, then feeds the outcome back into
// the reducer. It runs detached from ctx so a dropped connection cannot leave
// the conversation stuck in submitting.
func (s *Service) submit(ctx context.Context, visitorID, sessionID string, st conversation.State, cmd *conversation.Submit) (conversation.State, error) {
	ctx = context.WithoutCancel(ctx)

	leadID := cmd.LeadID
	if leadID == "" {
		// The conversation must name its lead before the lead exists, so a
		// later failure is reconciled against this ID instead of a new one.
		assigned, _ := conversation.Reduce(st, conversation.LeadAssigned{LeadID: s.leads.NewID()})
		if err := s.save(ctx, visitorID, sessionID, st, assigned); err != nil {
			return st, err
		}
		st = assigned
		leadID = st.LeadID
	}

	if err := s.leads.Create(ctx, leadID, visitorID, sessionID, cmd.Record); err != nil {
		slog.Error("Failed to store lead", "visitor_id", visitorID, "session_id", sessionID, "lead_id", leadID, "error", err)
		next, _ := conversation.Reduce(st, conversation.DeliveryFailed{LeadID: leadID, Reason: err.Error()})
		return next, s.save(ctx, visitorID, sessionID, st, next)
	}

	var ev conversation.Event = conversation.Delivered{LeadID: leadID}
	if err := s.leads.Deliver(ctx, leadID); err != nil {
		slog.Warn("Lead submission failed", "visitor_id", visitorID, "session_id", sessionID, "lead_id", leadID, "error", err)
		ev = conversation.DeliveryFailed{LeadID: leadID, Reason: err.Error()}
	}

	next, _ := conversation.Reduce(st, ev)
	return next, s.save(ctx, visitorID, sessionID, st, next)
}

// loadReconciled loads the conversation and brings its submission outcome in
// line with the lead outbox. Must be called with the conversation gate held.
func (s *Service) loadReconciled(ctx context.Context, visitorID, sessionID string) (conversation.State, error) {
	st, stored, err := s.load(ctx, visitorID, sessionID)
	if err != nil {
		return conversation.State{}, err
	}

	reconciled := s.reconcile(ctx, st)
	if !stored || changed(st, reconciled) {
		prev := st
		if !stored {
			prev = conversation.State{}
		}
		if err := s.save(ctx, visitorID, sessionID, prev, reconciled); err != nil {
			return conversation.State{}, err
		}
	}
	return reconciled, nil
}

func (s *Service) reconcile(ctx context.Context, st conversation.State) conversation.State {
	if st.Phase != conversation.PhaseSubmitting && st.Phase != conversation.PhaseDeliveryFailed {
		return st
	}

	if st.LeadID != "" {
		status, err := s.leads.Status(ctx, st.LeadID)
		if err != nil {
			slog.Warn("Failed to check lead status", "lead_id", st.LeadID, "error", err)
		} else if status == domain.LeadDelivered {
			if st.Phase == conversation.PhaseDeliveryFailed {
				st, _ = conversation.Reduce(st, conversation.Retry{})
			}
			st, _ = conversation.Reduce(st, conversation.Delivered{LeadID: st.LeadID})
			return st
		}
	}

	// Nothing can be in flight while the gate is held, so a stored
	// submitting state means the process stopped mid-delivery.
	if st.Phase == conversation.PhaseSubmitting {
		st, _ = conversation.Reduce(st, conversation.DeliveryFailed{LeadID: st.LeadID, Reason: interruptedReason})
	}
	return st
}

func (s *Service) load(ctx context.Context, visitorID, sessionID string) (conversation.State, bool, error) {
	sess, err := s.repo.GetChatSession(ctx, visitorID, sessionID)
	if err != nil {
		return conversation.State{}, false, fmt.Errorf("load conversation: %w", err)
	}
	if sess == nil {
		return conversation.New(), false, nil
	}

	var st conversation.State
	if err := json.Unmarshal([]byte(sess.StateJSON), &st); err != nil || st.Phase == "" {
		slog.Warn("Discarding unreadable conversation state", "visitor_id", visitorID, "session_id", sessionID, "error", err)
		return conversation.New(), false, nil
	}
	return st, true, nil
}

func (s *Service) save(ctx context.Context, visitorID, sessionID string, prev, next conversation.State) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.repo.UpsertChatSession(ctx, &domain.ChatSession{
		VisitorID: visitorID,
		SessionID: sessionID,
		StateJSON: string(data),
	}); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	s.logTransition(visitorID, sessionID, prev, next)
	return nil
}

func (s *Service) logTransition(visitorID, sessionID string, prev, next conversation.State) {
	start := len(prev.Transcript)
	if start > len(next.Transcript) {
		s.log.Log(TranscriptEvent{VisitorID: visitorID, SessionID: sessionID, Channel: "chat", EventType: "conversation_reset"})
		start = 0
	}
	for _, msg := range next.Transcript[min(start, len(next.Transcript)):] {
		s.log.Log(TranscriptEvent{
			VisitorID: visitorID,
			SessionID: sessionID,
			Channel:   "chat",
			Speaker:   string(msg.Speaker),
			EventType: "message",
			Text:      msg.Text,
		})
	}
	if prev.Phase != next.Phase {
		s.log.Log(TranscriptEvent{
			VisitorID: visitorID,
			SessionID: sessionID,
			Channel:   "chat",
			EventType: "phase_changed",
			Phase:     string(next.Phase),
			LeadID:    next.LeadID,
		})
	}
}

func (s *Service) pause(ctx context.Context) error {
	if s.replyDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.replyDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func changed(a, b conversation.State) bool {
	return a.Phase != b.Phase ||
		a.StepIndex != b.StepIndex ||
		a.LeadID != b.LeadID ||
		len(a.Transcript) != len(b.Transcript)
}
