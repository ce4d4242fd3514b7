// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/smagents/landing/internal/domain"
)

// Repository defines the interface for persisting visitors, chat sessions and leads.
type Repository interface {
	// GetVisitor retrieves a visitor by ID. Returns nil, nil when absent.
	GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error)

	// UpsertVisitor creates or updates a visitor record.
	UpsertVisitor(ctx context.Context, visitor *domain.Visitor) error

	// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
	UpdateLastSeen(ctx context.Context, visitorID string, lastSeen time.Time) error

	// GetChatSession retrieves the stored conversation for a visitor tab.
	// Returns nil, nil when absent.
	GetChatSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error)

	// UpsertChatSession creates or updates conversation state.
	UpsertChatSession(ctx context.Context, session *domain.ChatSession) error

	// DeleteChatSession removes conversation state.
	DeleteChatSession(ctx context.Context, visitorID, sessionID string) error

	// CleanupExpiredSessions removes conversations idle longer than ttl.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// CreateLead stores a completed record before any delivery attempt.
	CreateLead(ctx context.Context, lead *domain.Lead) error

	// GetLead retrieves a lead by ID. Returns nil, nil when absent.
	GetLead(ctx context.Context, leadID string) (*domain.Lead, error)

	// MarkLeadDelivered records a successful delivery attempt.
	MarkLeadDelivered(ctx context.Context, leadID string, at time.Time) error

	// MarkLeadFailed records a failed delivery attempt and its reason.
	MarkLeadFailed(ctx context.Context, leadID, reason string, at time.Time) error

	// ListRetryableLeads returns failed leads below maxAttempts, plus pending
	// leads untouched since staleBefore (an interrupted first attempt).
	ListRetryableLeads(ctx context.Context, maxAttempts int, staleBefore time.Time) ([]*domain.Lead, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
