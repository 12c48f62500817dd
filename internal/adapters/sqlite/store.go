// Package sqlite implements a lead store backed by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store implements ports.LeadStore on SQLite.
// The full lead is kept as one JSON column next to a few query columns,
// so every Save is a single-row upsert.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates (if needed) and opens the database at path, applying the schema.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not set")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	s, err := New(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	s.logger.Debug("SQLite schema applied")
	return s, nil
}

// Save upserts the lead record.
func (s *Store) Save(ctx context.Context, lead *domain.Lead) error {
	record, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (channel_id, id, display_name, current_step_id, record, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			display_name = excluded.display_name,
			current_step_id = excluded.current_step_id,
			record = excluded.record,
			updated_at = excluded.updated_at`,
		lead.ChannelID, lead.ID, lead.DisplayName, lead.CurrentStepID, string(record),
		lead.CreatedAt.UnixNano(), lead.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// Load retrieves the lead for a channel id.
func (s *Store) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM leads WHERE channel_id = ?`, channelID).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	return decode(record)
}

// Delete removes the lead.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

// List returns every lead ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM leads ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*domain.Lead{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		lead, err := decode(record)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func decode(record string) (*domain.Lead, error) {
	var lead domain.Lead
	if err := json.Unmarshal([]byte(record), &lead); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead: %w", err)
	}
	if lead.Answers == nil {
		lead.Answers = make(map[string]string)
	}
	return &lead, nil
}
