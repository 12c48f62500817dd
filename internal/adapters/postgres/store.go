// Package postgres implements a lead store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectColumns = `SELECT id, channel_id, display_name, current_step_id, answers, history, created_at, updated_at FROM leads`

// Store implements ports.LeadStore on PostgreSQL.
type Store struct {
	db DB
}

// New wraps a pool or any DB implementation.
func New(db DB) *Store {
	if db == nil {
		panic("postgres: db required")
	}
	return &Store{db: db}
}

// Connect opens a pool for the given connection string.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres url not set")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Save upserts the lead keyed by channel id.
func (s *Store) Save(ctx context.Context, lead *domain.Lead) error {
	answers, err := json.Marshal(lead.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	history, err := json.Marshal(lead.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO leads (channel_id, id, display_name, current_step_id, answers, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (channel_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			current_step_id = EXCLUDED.current_step_id,
			answers = EXCLUDED.answers,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at`,
		lead.ChannelID, lead.ID, lead.DisplayName, lead.CurrentStepID,
		answers, history, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// Load retrieves the lead for a channel id.
func (s *Store) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	row := s.db.QueryRow(ctx, selectColumns+` WHERE channel_id = $1`, channelID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	return lead, nil
}

// Delete removes the lead.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM leads WHERE channel_id = $1`, channelID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

// List returns every lead ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.Lead, error) {
	rows, err := s.db.Query(ctx, selectColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*domain.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var (
		lead               domain.Lead
		answers, history   []byte
		createdAt, updated time.Time
	)
	if err := row.Scan(&lead.ID, &lead.ChannelID, &lead.DisplayName, &lead.CurrentStepID,
		&answers, &history, &createdAt, &updated); err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &lead.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &lead.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	if lead.Answers == nil {
		lead.Answers = make(map[string]string)
	}
	lead.CreatedAt = createdAt
	lead.UpdatedAt = updated
	return &lead, nil
}
