package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/smagents/landing/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestVisitorRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetVisitor(ctx, "anon_missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil visitor, got %v err=%v", got, err)
	}

	now := time.Now().Truncate(time.Second)
	v := &domain.Visitor{VisitorID: "anon_1", DisplayName: "visitor-1", LastSeenAt: now, CreatedAt: now, UpdatedAt: now}
	if err := repo.UpsertVisitor(ctx, v); err != nil {
		t.Fatalf("UpsertVisitor failed: %v", err)
	}

	later := now.Add(time.Hour)
	if err := repo.UpdateLastSeen(ctx, "anon_1", later); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}

	got, err = repo.GetVisitor(ctx, "anon_1")
	if err != nil || got == nil {
		t.Fatalf("GetVisitor failed: %v", err)
	}
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("expected last seen %v, got %v", later, got.LastSeenAt)
	}
}

func TestChatSessionUpsertAndDelete(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	cs := &domain.ChatSession{VisitorID: "anon_1", SessionID: "tab-1", StateJSON: `{"step_index":0}`}
	if err := repo.UpsertChatSession(ctx, cs); err != nil {
		t.Fatalf("UpsertChatSession failed: %v", err)
	}
	cs.StateJSON = `{"step_index":1}`
	if err := repo.UpsertChatSession(ctx, cs); err != nil {
		t.Fatalf("second UpsertChatSession failed: %v", err)
	}

	got, err := repo.GetChatSession(ctx, "anon_1", "tab-1")
	if err != nil || got == nil {
		t.Fatalf("GetChatSession failed: %v", err)
	}
	if got.StateJSON != `{"step_index":1}` {
		t.Fatalf("expected updated state, got %s", got.StateJSON)
	}

	other, err := repo.GetChatSession(ctx, "anon_1", "tab-2")
	if err != nil || other != nil {
		t.Fatalf("expected tabs to be isolated, got %v err=%v", other, err)
	}

	if err := repo.DeleteChatSession(ctx, "anon_1", "tab-1"); err != nil {
		t.Fatalf("DeleteChatSession failed: %v", err)
	}
	got, err = repo.GetChatSession(ctx, "anon_1", "tab-1")
	if err != nil || got != nil {
		t.Fatalf("expected deleted session, got %v err=%v", got, err)
	}
}

func TestLeadLifecycle(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	lead := &domain.Lead{
		LeadID: "lead-1", VisitorID: "anon_1", SessionID: "tab-1",
		Name: "Olena", Sphere: "retail", Process: "lead intake", Contact: "t.me/olena",
	}
	if err := repo.CreateLead(ctx, lead); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}

	got, err := repo.GetLead(ctx, "lead-1")
	if err != nil || got == nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.Status != domain.LeadPending || got.Attempts != 0 || got.Contact != "t.me/olena" {
		t.Fatalf("unexpected lead: %+v", got)
	}

	now := time.Now()
	if err := repo.MarkLeadFailed(ctx, "lead-1", "status 502", now); err != nil {
		t.Fatalf("MarkLeadFailed failed: %v", err)
	}
	retryable, err := repo.ListRetryableLeads(ctx, 5, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListRetryableLeads failed: %v", err)
	}
	if len(retryable) != 1 || retryable[0].LastError != "status 502" || retryable[0].Attempts != 1 {
		t.Fatalf("expected one failed lead, got %+v", retryable)
	}

	if err := repo.MarkLeadDelivered(ctx, "lead-1", now); err != nil {
		t.Fatalf("MarkLeadDelivered failed: %v", err)
	}
	got, _ = repo.GetLead(ctx, "lead-1")
	if got.Status != domain.LeadDelivered || got.DeliveredAt == nil || got.Attempts != 2 || got.LastError != "" {
		t.Fatalf("unexpected delivered lead: %+v", got)
	}

	retryable, err = repo.ListRetryableLeads(ctx, 5, now.Add(time.Hour))
	if err != nil || len(retryable) != 0 {
		t.Fatalf("expected no retryable leads, got %d err=%v", len(retryable), err)
	}

	if err := repo.MarkLeadFailed(ctx, "lead-1", "late failure", now); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected delivered lead to stay delivered, got %v", err)
	}
}

func TestListRetryableLeadsRespectsMaxAttempts(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateLead(ctx, &domain.Lead{LeadID: "lead-1", VisitorID: "v", SessionID: "s"}); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.MarkLeadFailed(ctx, "lead-1", "boom", time.Now()); err != nil {
			t.Fatalf("MarkLeadFailed failed: %v", err)
		}
	}

	leads, err := repo.ListRetryableLeads(ctx, 3, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListRetryableLeads failed: %v", err)
	}
	if len(leads) != 0 {
		t.Fatalf("expected exhausted lead to be skipped, got %d", len(leads))
	}
}

func TestPendingLeadBecomesRetryableWhenStale(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateLead(ctx, &domain.Lead{LeadID: "lead-1", VisitorID: "v", SessionID: "s"}); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}

	fresh, _ := repo.ListRetryableLeads(ctx, 5, time.Now().Add(-time.Minute))
	if len(fresh) != 0 {
		t.Fatalf("expected fresh pending lead to be skipped, got %d", len(fresh))
	}
	stale, _ := repo.ListRetryableLeads(ctx, 5, time.Now().Add(time.Minute))
	if len(stale) != 1 {
		t.Fatalf("expected stale pending lead to be listed, got %d", len(stale))
	}
}
