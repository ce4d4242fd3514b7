package domain

import (
	"time"
)

// ChatSession stores the persisted conversation state for one visitor tab.
type ChatSession struct {
	VisitorID string
	SessionID string
	StateJSON string
	CreatedAt time.Time
	UpdatedAt time.Time
}
