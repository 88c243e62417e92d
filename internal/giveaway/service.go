package giveaway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/odjakh/giveaway-bot/core/logger"
	"github.com/odjakh/giveaway-bot/internal/storage"
)

// winnerNamePlaceholder is used when the stored username is empty.
const winnerNamePlaceholder = "Победитель"

// CertificateRenderer produces the prize certificate image for the winner.
type CertificateRenderer interface {
	Render(winnerName string, issuedAt time.Time) ([]byte, error)
}

// DrawMessages supplies the outbound texts for the post-commit fan-out.
// The engine decides who gets what; the wording lives with the handlers.
type DrawMessages struct {
	// WinnerCaption captions the certificate photo sent to the winner.
	WinnerCaption func(expiresAt time.Time) string
	// ResultText is broadcast to every non-winning participant.
	ResultText func(winnerName string) string
}

// Options configure a Service.
type Options struct {
	Store        storage.Store
	Notifier     Notifier
	Certificates CertificateRenderer
	Window       Window
	DiscountDays int
	Messages     DrawMessages

	// Pick selects a winner index in [0, n). When nil, a uniform random
	// pick is used; tests inject a deterministic one.
	Pick func(n int) int
}

// Service implements the registration and draw engines on top of the Store.
// All mutation goes through the Store's atomic operations; the Service holds
// no state of its own and is safe for concurrent use.
type Service struct {
	store        storage.Store
	notifier     Notifier
	certs        CertificateRenderer
	window       Window
	discountDays int
	messages     DrawMessages
	pick         func(n int) int
}

// NewService wires the engines. Store is required; Notifier and
// Certificates may be nil for transportless runs, in which case the
// fan-out degrades to counting failures.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("giveaway: store is required")
	}
	if opts.DiscountDays <= 0 {
		opts.DiscountDays = 90
	}
	pick := opts.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return &Service{
		store:        opts.Store,
		notifier:     opts.Notifier,
		certs:        opts.Certificates,
		window:       opts.Window,
		discountDays: opts.DiscountDays,
		messages:     opts.Messages,
		pick:         pick,
	}, nil
}

// Window exposes the configured registration window.
func (s *Service) Window() Window {
	return s.window
}

// DiscountUntil computes the discount expiry for a registration timestamp.
func (s *Service) DiscountUntil(joinedAt time.Time) time.Time {
	return joinedAt.AddDate(0, 0, s.discountDays)
}

// Register performs an idempotent registration attempt at the given instant.
// Outside the window nothing is written. A duplicate attempt surfaces the
// original JoinedAt; the store's uniqueness constraint is the sole
// enforcement point, so a race never produces a duplicate row or an error.
func (s *Service) Register(ctx context.Context, userID int64, username string, now time.Time) (RegisterResult, error) {
	if !s.window.Contains(now) {
		logger.Debug(ctx, "service.giveaway", "register.window_closed",
			slog.Int64("user_id", userID),
		)
		return RegisterResult{Status: WindowClosed}, nil
	}

	res, err := s.store.InsertParticipantIfAbsent(ctx, userID, username, now)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("register %d: %w", userID, err)
	}

	status := Registered
	if !res.Inserted {
		status = AlreadyRegistered
	}
	logger.Info(ctx, "service.giveaway", "register",
		slog.Int64("user_id", userID),
		slog.Bool("inserted", res.Inserted),
	)
	return RegisterResult{
		Status:        status,
		JoinedAt:      res.JoinedAt,
		DiscountUntil: s.DiscountUntil(res.JoinedAt),
	}, nil
}

// Count returns the current participant total.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountParticipants(ctx)
}

// Participants returns the participant table ordered by joined_at.
func (s *Service) Participants(ctx context.Context) ([]storage.Participant, error) {
	return s.store.ListParticipants(ctx)
}

// Draw runs the prize draw at the given instant. The winner commit is
// decided entirely by the store: when two draws race, exactly one commit
// succeeds and the loser reports the committed outcome, discarding its own
// pick. The notification fan-out happens strictly after the commit and only
// on the committing call; its failures never roll the draw back.
func (s *Service) Draw(ctx context.Context, now time.Time) (DrawResult, error) {
	if !s.window.DrawEligible(now) {
		return DrawResult{Status: TooEarly}, nil
	}

	state, err := s.store.GiveawayState(ctx)
	if err != nil {
		return DrawResult{}, fmt.Errorf("draw: read state: %w", err)
	}
	if state.Drawn() {
		return s.alreadyDrawnResult(ctx, state)
	}

	ids, err := s.store.ParticipantIDs(ctx)
	if err != nil {
		return DrawResult{}, fmt.Errorf("draw: list participants: %w", err)
	}
	if len(ids) == 0 {
		return DrawResult{Status: NoParticipants}, nil
	}

	winnerID := ids[s.pick(len(ids))]
	if err := s.store.SetWinner(ctx, winnerID, now); err != nil {
		if errors.Is(err, storage.ErrAlreadyDrawn) {
			// A concurrent draw won the commit; its outcome is authoritative.
			state, err := s.store.GiveawayState(ctx)
			if err != nil {
				return DrawResult{}, fmt.Errorf("draw: read committed state: %w", err)
			}
			return s.alreadyDrawnResult(ctx, state)
		}
		return DrawResult{}, fmt.Errorf("draw: commit winner: %w", err)
	}

	winnerName := s.resolveWinnerName(ctx, winnerID)
	expiresAt := s.DiscountUntil(now)

	logger.Info(ctx, "service.giveaway", "draw",
		slog.Int64("winner_id", winnerID),
		slog.Int("participants", len(ids)),
	)

	var certificate []byte
	var certErr error
	if s.certs != nil {
		certificate, certErr = s.certs.Render(winnerName, now)
		if certErr != nil {
			logger.Error(ctx, "service.certificate", "certificate.render",
				slog.Int64("winner_id", winnerID),
				slog.String("err", certErr.Error()),
			)
		}
	}

	report := s.broadcastOutcome(ctx, ids, winnerID, winnerName, certificate, expiresAt)

	return DrawResult{
		Status:         Drawn,
		WinnerID:       winnerID,
		WinnerName:     winnerName,
		DrawnAt:        now,
		CertExpiresAt:  expiresAt,
		Delivery:       report,
		CertificateErr: certErr,
	}, nil
}

// Reset clears the participant table and returns the giveaway to undrawn.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	logger.Info(ctx, "service.giveaway", "reset")
	return nil
}

func (s *Service) alreadyDrawnResult(ctx context.Context, state storage.GiveawayState) (DrawResult, error) {
	res := DrawResult{Status: AlreadyDrawn}
	if state.WinnerID != nil {
		res.WinnerID = *state.WinnerID
		res.WinnerName = s.resolveWinnerName(ctx, *state.WinnerID)
	}
	if state.DrawnAt != nil {
		res.DrawnAt = *state.DrawnAt
		res.CertExpiresAt = s.DiscountUntil(*state.DrawnAt)
	}
	return res, nil
}

// resolveWinnerName is best-effort: lookup failures and empty usernames
// fall back to a generic placeholder.
func (s *Service) resolveWinnerName(ctx context.Context, winnerID int64) string {
	p, err := s.store.GetParticipant(ctx, winnerID)
	if err != nil || p == nil || p.Username == "" {
		return winnerNamePlaceholder
	}
	return "@" + p.Username
}

// broadcastOutcome notifies the winner (certificate photo, or the caption
// as plain text when the certificate is nil) and every other participant
// (plain text). Each delivery is independent; failures are swallowed into
// the report and never abort the remaining sends.
func (s *Service) broadcastOutcome(ctx context.Context, ids []int64, winnerID int64, winnerName string, certificate []byte, expiresAt time.Time) DeliveryReport {
	var report DeliveryReport
	if s.notifier == nil {
		report.Failed = len(ids)
		return report
	}

	for _, id := range ids {
		var err error
		if id == winnerID {
			caption := ""
			if s.messages.WinnerCaption != nil {
				caption = s.messages.WinnerCaption(expiresAt)
			}
			if certificate != nil {
				err = s.notifier.SendPhoto(ctx, id, certificate, caption)
			} else {
				err = s.notifier.SendText(ctx, id, caption)
			}
		} else {
			text := ""
			if s.messages.ResultText != nil {
				text = s.messages.ResultText(winnerName)
			}
			err = s.notifier.SendText(ctx, id, text)
		}
		if err != nil {
			report.Failed++
			logger.Warn(ctx, "service.giveaway", "draw.notify",
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		report.Sent++
	}

	logger.Info(ctx, "service.giveaway", "draw.broadcast",
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	return report
}
