// Package repository persists agent customizations and handoff requests.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/widget/internal/customization"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Handoff is one request to move a session to a human agent.
type Handoff struct {
	HandoffID   string    `json:"handoff_id"`
	SessionID   string    `json:"session_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// SQLiteStore stores backend state in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn and creates the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to an in-memory database is a separate database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS customizations (
			agent_id TEXT PRIMARY KEY,
			primary_color TEXT NOT NULL,
			header_title TEXT NOT NULL,
			welcome_message TEXT NOT NULL,
			position TEXT NOT NULL,
			border_radius INTEGER NOT NULL,
			font_family TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS handoffs (
			handoff_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			requested_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_handoffs_session ON handoffs(session_id, requested_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCustomization returns the saved customization of an agent.
func (s *SQLiteStore) GetCustomization(ctx context.Context, agentID string) (*customization.Customization, error) {
	var c customization.Customization
	err := s.db.QueryRowContext(ctx, `
		SELECT primary_color, header_title, welcome_message, position, border_radius, font_family
		FROM customizations WHERE agent_id = ?`, agentID,
	).Scan(&c.PrimaryColor, &c.HeaderTitle, &c.WelcomeMessage, &c.Position, &c.BorderRadius, &c.FontFamily)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customization: %w", err)
	}
	return &c, nil
}

// SaveCustomization inserts or replaces an agent's customization.
func (s *SQLiteStore) SaveCustomization(ctx context.Context, agentID string, c customization.Customization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customizations (agent_id, primary_color, header_title, welcome_message, position, border_radius, font_family, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			primary_color = excluded.primary_color,
			header_title = excluded.header_title,
			welcome_message = excluded.welcome_message,
			position = excluded.position,
			border_radius = excluded.border_radius,
			font_family = excluded.font_family,
			updated_at = excluded.updated_at`,
		agentID, c.PrimaryColor, c.HeaderTitle, c.WelcomeMessage, c.Position, c.BorderRadius, c.FontFamily, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save customization: %w", err)
	}
	return nil
}

// CreateHandoff records a handoff request for a session.
func (s *SQLiteStore) CreateHandoff(ctx context.Context, sessionID string) (*Handoff, error) {
	h := &Handoff{
		HandoffID:   "ho_" + uuid.New().String()[:8],
		SessionID:   sessionID,
		RequestedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO handoffs (handoff_id, session_id, requested_at) VALUES (?, ?, ?)`,
		h.HandoffID, h.SessionID, h.RequestedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create handoff: %w", err)
	}
	return h, nil
}

// ListHandoffs returns a session's handoffs, oldest first.
func (s *SQLiteStore) ListHandoffs(ctx context.Context, sessionID string) ([]Handoff, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handoff_id, session_id, requested_at FROM handoffs WHERE session_id = ? ORDER BY requested_at ASC, handoff_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list handoffs: %w", err)
	}
	defer rows.Close()

	var out []Handoff
	for rows.Next() {
		var h Handoff
		if err := rows.Scan(&h.HandoffID, &h.SessionID, &h.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan handoff: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// IsHandedOff reports whether a session has any handoff on record.
func (s *SQLiteStore) IsHandedOff(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM handoffs WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count handoffs: %w", err)
	}
	return n > 0, nil
}
