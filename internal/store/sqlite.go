package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/smagents/landing/internal/domain"
	"github.com/smagents/landing/internal/shared"
	_ "modernc.org/sqlite"
)

// ErrLeadNotFound is returned when a lead update matches no row.
var ErrLeadNotFound = errors.New("lead not found")

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // serializes chat session writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS visitors (
		visitor_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		visitor_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (visitor_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated ON chat_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS leads (
		lead_id TEXT PRIMARY KEY,
		visitor_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sphere TEXT NOT NULL,
		process TEXT NOT NULL,
		contact TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		last_attempt_at INTEGER,
		delivered_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status) WHERE status != 'delivered';
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetVisitor retrieves a visitor by ID.
func (s *SQLiteStore) GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error) {
	query := `
		SELECT visitor_id, display_name, last_seen_at, created_at, updated_at
		FROM visitors WHERE visitor_id = ?`

	var v domain.Visitor
	var lastSeen, createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, visitorID).Scan(
		&v.VisitorID, &v.DisplayName, &lastSeen, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan visitor row: %w", err)
	}

	v.LastSeenAt = time.Unix(lastSeen, 0)
	v.CreatedAt = time.Unix(createdAt, 0)
	v.UpdatedAt = time.Unix(updatedAt, 0)
	return &v, nil
}

// UpsertVisitor creates or updates a visitor record.
func (s *SQLiteStore) UpsertVisitor(ctx context.Context, v *domain.Visitor) error {
	query := `
	INSERT INTO visitors (visitor_id, display_name, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(visitor_id) DO UPDATE SET
		display_name = excluded.display_name,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		v.VisitorID, v.DisplayName, v.LastSeenAt.Unix(), v.CreatedAt.Unix(), v.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert visitor: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, visitorID string, lastSeen time.Time) error {
	query := `UPDATE visitors SET last_seen_at = ?, updated_at = ? WHERE visitor_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), visitorID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "visitor_id", visitorID)
	}
	return nil
}

// GetChatSession retrieves the stored conversation for a visitor tab.
func (s *SQLiteStore) GetChatSession(ctx context.Context, visitorID, sessionID string) (*domain.ChatSession, error) {
	query := `
		SELECT visitor_id, session_id, state_json, created_at, updated_at
		FROM chat_sessions WHERE visitor_id = ? AND session_id = ?`

	var cs domain.ChatSession
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, visitorID, sessionID).Scan(
		&cs.VisitorID, &cs.SessionID, &cs.StateJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat session: %w", err)
	}

	cs.CreatedAt = time.Unix(createdAt, 0)
	cs.UpdatedAt = time.Unix(updatedAt, 0)
	return &cs, nil
}

// UpsertChatSession creates or updates conversation state.
func (s *SQLiteStore) UpsertChatSession(ctx context.Context, cs *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (visitor_id, session_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(visitor_id, session_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`

	now := time.Now()
	createdAt := cs.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := cs.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "UpsertChatSession", func(ctx context.Context) error {
		s.sessionMu.Lock()
		defer s.sessionMu.Unlock()

		if _, err := s.db.ExecContext(ctx, query,
			cs.VisitorID, cs.SessionID, cs.StateJSON, createdAt.Unix(), updatedAt.Unix(),
		); err != nil {
			return fmt.Errorf("upsert chat session: %w", err)
		}
		return nil
	})
}

// DeleteChatSession removes conversation state.
func (s *SQLiteStore) DeleteChatSession(ctx context.Context, visitorID, sessionID string) error {
	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "DeleteChatSession", func(ctx context.Context) error {
		s.sessionMu.Lock()
		defer s.sessionMu.Unlock()

		query := `DELETE FROM chat_sessions WHERE visitor_id = ? AND session_id = ?`
		if _, err := s.db.ExecContext(ctx, query, visitorID, sessionID); err != nil {
			return fmt.Errorf("delete chat session: %w", err)
		}
		return nil
	})
}

// CleanupExpiredSessions removes conversations idle longer than ttl.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	query := `DELETE FROM chat_sessions WHERE updated_at < ?`
	result, err := s.db.ExecContext(ctx, query, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CreateLead stores a completed record before any delivery attempt. Creating
// an existing lead ID is a no-op.
func (s *SQLiteStore) CreateLead(ctx context.Context, l *domain.Lead) error {
	query := `
		INSERT INTO leads (
			lead_id, visitor_id, session_id, name, sphere, process, contact,
			status, attempts, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(lead_id) DO NOTHING`

	status := l.Status
	if status == "" {
		status = domain.LeadPending
	}
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "CreateLead", func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, query,
			l.LeadID, l.VisitorID, l.SessionID, l.Name, l.Sphere, l.Process, l.Contact,
			string(status), l.CreatedAt.Unix(), now.Unix(),
		); err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		return nil
	})
}

const leadColumns = `
	lead_id, visitor_id, session_id, name, sphere, process, contact,
	status, attempts, last_error, last_attempt_at, delivered_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	var status string
	var lastError sql.NullString
	var lastAttempt, deliveredAt sql.NullInt64
	var createdAt, updatedAt int64

	if err := row.Scan(
		&l.LeadID, &l.VisitorID, &l.SessionID, &l.Name, &l.Sphere, &l.Process, &l.Contact,
		&status, &l.Attempts, &lastError, &lastAttempt, &deliveredAt, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	l.Status = domain.LeadStatus(status)
	l.LastError = lastError.String
	if lastAttempt.Valid {
		ts := time.Unix(lastAttempt.Int64, 0)
		l.LastAttemptAt = &ts
	}
	if deliveredAt.Valid {
		ts := time.Unix(deliveredAt.Int64, 0)
		l.DeliveredAt = &ts
	}
	l.CreatedAt = time.Unix(createdAt, 0)
	l.UpdatedAt = time.Unix(updatedAt, 0)
	return &l, nil
}

// GetLead retrieves a lead by ID.
func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE lead_id = ?`, leadID)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	return l, nil
}

// MarkLeadDelivered records a successful delivery attempt.
func (s *SQLiteStore) MarkLeadDelivered(ctx context.Context, leadID string, at time.Time) error {
	query := `
		UPDATE leads SET status = ?, attempts = attempts + 1, last_error = NULL,
			last_attempt_at = ?, delivered_at = ?, updated_at = ?
		WHERE lead_id = ?`
	return s.updateLead(ctx, "MarkLeadDelivered", query,
		string(domain.LeadDelivered), at.Unix(), at.Unix(), time.Now().Unix(), leadID)
}

// MarkLeadFailed records a failed delivery attempt and its reason.
func (s *SQLiteStore) MarkLeadFailed(ctx context.Context, leadID, reason string, at time.Time) error {
	query := `
		UPDATE leads SET status = ?, attempts = attempts + 1, last_error = ?,
			last_attempt_at = ?, updated_at = ?
		WHERE lead_id = ? AND status != ?`
	return s.updateLead(ctx, "MarkLeadFailed", query,
		string(domain.LeadFailed), reason, at.Unix(), time.Now().Unix(), leadID, string(domain.LeadDelivered))
}

func (s *SQLiteStore) updateLead(ctx context.Context, name, query string, args ...any) error {
	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, name, func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrLeadNotFound
		}
		return nil
	})
}

// ListRetryableLeads returns leads eligible for another delivery attempt.
func (s *SQLiteStore) ListRetryableLeads(ctx context.Context, maxAttempts int, staleBefore time.Time) ([]*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE (status = ? AND attempts < ?)
		   OR (status = ? AND updated_at < ?)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query,
		string(domain.LeadFailed), maxAttempts,
		string(domain.LeadPending), staleBefore.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query retryable leads: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close retryable leads rows", "error", closeErr)
		}
	}()

	var leads []*domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan retryable lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retryable leads: %w", err)
	}
	return leads, nil
}
