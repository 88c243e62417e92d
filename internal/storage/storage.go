package storage

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyDrawn is returned by SetWinner when a winner was already committed.
var ErrAlreadyDrawn = errors.New("storage: giveaway already drawn")

// Participant is a registered giveaway entrant. Rows are immutable after
// insertion; later duplicate registrations never touch them.
type Participant struct {
	UserID   int64     `db:"user_id"`
	Username string    `db:"username"`
	JoinedAt time.Time `db:"joined_at"`
}

// GiveawayState is the singleton draw outcome record. WinnerID and DrawnAt
// are either both set (drawn) or both nil (undrawn).
type GiveawayState struct {
	WinnerID *int64     `db:"winner_id"`
	DrawnAt  *time.Time `db:"drawn_at"`
}

// Drawn reports whether the winner has been committed.
func (s GiveawayState) Drawn() bool {
	return s.WinnerID != nil
}

// InsertResult reports the outcome of an idempotent registration insert.
// When Inserted is false, JoinedAt carries the existing row's timestamp.
type InsertResult struct {
	Inserted bool
	JoinedAt time.Time
}

// Store is the single source of truth for participants and the giveaway
// outcome. All operations are atomic with respect to each other: concurrent
// inserts of the same id produce exactly one row, and at most one SetWinner
// ever succeeds between resets.
type Store interface {
	// InsertParticipantIfAbsent registers the user once. A second call for
	// the same id leaves the row untouched and returns the original JoinedAt.
	InsertParticipantIfAbsent(ctx context.Context, id int64, username string, joinedAt time.Time) (InsertResult, error)

	// GetParticipant returns the participant or nil when absent.
	GetParticipant(ctx context.Context, id int64) (*Participant, error)

	CountParticipants(ctx context.Context) (int, error)

	// ListParticipants returns all participants ordered by joined_at ascending.
	ListParticipants(ctx context.Context) ([]Participant, error)

	// ParticipantIDs returns the full id population for the draw, ordered
	// by user_id so a pick index addresses a stable position.
	ParticipantIDs(ctx context.Context) ([]int64, error)

	GiveawayState(ctx context.Context) (GiveawayState, error)

	// SetWinner commits the draw outcome. It fails with ErrAlreadyDrawn when
	// another draw has already committed, leaving the stored winner intact.
	SetWinner(ctx context.Context, id int64, drawnAt time.Time) error

	// Reset deletes all participants and returns the giveaway state to
	// undrawn in a single atomic step.
	Reset(ctx context.Context) error
}
