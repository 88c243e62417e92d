package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odjakh/giveaway-bot/core/logger"
)

// PostgresStore persists participants and the giveaway outcome in Postgres.
// Atomicity relies on the participants primary key and a guarded singleton
// update for the winner commit; every mutating statement commits before
// the method returns.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an established sqlx connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertParticipantIfAbsent registers the user once via ON CONFLICT DO NOTHING.
func (s *PostgresStore) InsertParticipantIfAbsent(ctx context.Context, id int64, username string, joinedAt time.Time) (InsertResult, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (user_id, username, joined_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		id, username, joinedAt,
	)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert participant: rows affected: %w", err)
	}
	if affected > 0 {
		return InsertResult{Inserted: true, JoinedAt: joinedAt}, nil
	}

	// Lost the race or repeated registration: surface the original timestamp.
	var existing time.Time
	if err := s.db.GetContext(ctx, &existing,
		`SELECT joined_at FROM participants WHERE user_id = $1`, id,
	); err != nil {
		return InsertResult{}, fmt.Errorf("read existing participant: %w", err)
	}
	return InsertResult{Inserted: false, JoinedAt: existing}, nil
}

// GetParticipant returns the participant or nil when absent.
func (s *PostgresStore) GetParticipant(ctx context.Context, id int64) (*Participant, error) {
	var p Participant
	err := s.db.GetContext(ctx, &p,
		`SELECT user_id, username, joined_at FROM participants WHERE user_id = $1`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

// CountParticipants returns the current participant total.
func (s *PostgresStore) CountParticipants(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM participants`); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// ListParticipants returns all participants ordered by joined_at ascending.
func (s *PostgresStore) ListParticipants(ctx context.Context) ([]Participant, error) {
	var out []Participant
	if err := s.db.SelectContext(ctx, &out,
		`SELECT user_id, username, joined_at FROM participants ORDER BY joined_at ASC, user_id ASC`,
	); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}

// ParticipantIDs returns the full id population ordered by user_id.
func (s *PostgresStore) ParticipantIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT user_id FROM participants ORDER BY user_id ASC`); err != nil {
		return nil, fmt.Errorf("list participant ids: %w", err)
	}
	return ids, nil
}

// GiveawayState reads the singleton outcome row.
func (s *PostgresStore) GiveawayState(ctx context.Context) (GiveawayState, error) {
	var st GiveawayState
	if err := s.db.GetContext(ctx, &st,
		`SELECT winner_id, drawn_at FROM giveaway_state WHERE id = 1`,
	); err != nil {
		return GiveawayState{}, fmt.Errorf("read giveaway state: %w", err)
	}
	return st, nil
}

// SetWinner commits the winner only when the state is still undrawn.
// The guarded UPDATE is the sole arbiter between concurrent draws.
func (s *PostgresStore) SetWinner(ctx context.Context, id int64, drawnAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE giveaway_state
		 SET winner_id = $1, drawn_at = $2
		 WHERE id = 1 AND winner_id IS NULL`,
		id, drawnAt,
	)
	if err != nil {
		return fmt.Errorf("set winner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set winner: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyDrawn
	}
	return nil
}

// Reset clears participants and the outcome together so the two never
// diverge; partial resets are not representable.
func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
		return fmt.Errorf("reset: clear participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE giveaway_state SET winner_id = NULL, drawn_at = NULL WHERE id = 1`,
	); err != nil {
		return fmt.Errorf("reset: clear state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}

	logger.Info(ctx, "db", "db.reset")
	return nil
}

var _ Store = (*PostgresStore)(nil)
