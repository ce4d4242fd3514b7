package domain

import (
	"time"
)

// LeadStatus is the delivery status of a completed conversation record.
type LeadStatus string

const (
	LeadPending   LeadStatus = "pending"
	LeadDelivered LeadStatus = "delivered"
	LeadFailed    LeadStatus = "failed"
)

// Lead is a completed conversation record awaiting or past delivery.
type Lead struct {
	LeadID        string
	VisitorID     string
	SessionID     string
	Name          string
	Sphere        string
	Process       string
	Contact       string
	Status        LeadStatus
	Attempts      int
	LastError     string
	LastAttemptAt *time.Time
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NextAttemptAt returns when a failed lead becomes eligible for another
// delivery attempt, doubling baseDelay per previous attempt.
func (l *Lead) NextAttemptAt(baseDelay time.Duration) time.Time {
	if l.LastAttemptAt == nil {
		return l.CreatedAt
	}
	shift := l.Attempts - 1
	if shift < 0 {
		shift = 0
	}
	if shift > 10 {
		shift = 10
	}
	return l.LastAttemptAt.Add(baseDelay * time.Duration(1<<shift))
}
