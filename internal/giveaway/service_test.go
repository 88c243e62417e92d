package giveaway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/odjakh/giveaway-bot/internal/storage"
)

var msk = time.FixedZone("MSK", 3*60*60)

type sentText struct {
	userID int64
	text   string
}

type recordingNotifier struct {
	mu      sync.Mutex
	texts   []sentText
	photos  map[int64][]byte
	failFor map[int64]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		photos:  make(map[int64][]byte),
		failFor: make(map[int64]bool),
	}
}

func (n *recordingNotifier) SendText(_ context.Context, userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[userID] {
		return errors.New("unreachable user")
	}
	n.texts = append(n.texts, sentText{userID: userID, text: text})
	return nil
}

func (n *recordingNotifier) SendPhoto(_ context.Context, userID int64, photo []byte, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[userID] {
		return errors.New("unreachable user")
	}
	n.photos[userID] = photo
	return nil
}

func (n *recordingNotifier) totalDeliveries() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts) + len(n.photos)
}

type fakeRenderer struct {
	names []string
}

func (r *fakeRenderer) Render(name string, _ time.Time) ([]byte, error) {
	r.names = append(r.names, name)
	return []byte("png-bytes"), nil
}

type failingRenderer struct{}

func (failingRenderer) Render(string, time.Time) ([]byte, error) {
	return nil, errors.New("certificate: template asset missing")
}

func testWindow(t *testing.T) Window {
	t.Helper()
	w, err := NewWindow("15:00", "19:30", msk)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return w
}

func newTestService(t *testing.T, store storage.Store, notifier Notifier, pick func(int) int) *Service {
	t.Helper()
	svc, err := NewService(Options{
		Store:        store,
		Notifier:     notifier,
		Certificates: &fakeRenderer{},
		Window:       testWindow(t),
		DiscountDays: 90,
		Messages: DrawMessages{
			WinnerCaption: func(expiresAt time.Time) string { return "win until " + expiresAt.Format("02.01.2006") },
			ResultText:    func(winnerName string) string { return "winner is " + winnerName },
		},
		Pick: pick,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	inWindow := time.Date(2026, 3, 1, 16, 0, 0, 0, msk)

	t.Run("inside window creates participant", func(t *testing.T) {
		store := storage.NewMemoryStore()
		svc := newTestService(t, store, newRecordingNotifier(), nil)

		res, err := svc.Register(ctx, 100, "alice", inWindow)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if res.Status != Registered {
			t.Fatalf("status = %v, want Registered", res.Status)
		}
		if !res.JoinedAt.Equal(inWindow) {
			t.Errorf("JoinedAt = %v, want %v", res.JoinedAt, inWindow)
		}
		if got := res.DiscountUntil.In(msk).Format("2006-01-02"); got != "2026-05-30" {
			t.Errorf("DiscountUntil = %s, want 2026-05-30", got)
		}
		if n, _ := store.CountParticipants(ctx); n != 1 {
			t.Errorf("participants = %d, want 1", n)
		}
	})

	t.Run("duplicate keeps original timestamp", func(t *testing.T) {
		store := storage.NewMemoryStore()
		svc := newTestService(t, store, newRecordingNotifier(), nil)

		first, err := svc.Register(ctx, 100, "alice", inWindow)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		later := inWindow.Add(30 * time.Minute)
		second, err := svc.Register(ctx, 100, "alice", later)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if second.Status != AlreadyRegistered {
			t.Fatalf("status = %v, want AlreadyRegistered", second.Status)
		}
		if !second.JoinedAt.Equal(first.JoinedAt) {
			t.Errorf("JoinedAt changed: %v, want %v", second.JoinedAt, first.JoinedAt)
		}
		if !second.DiscountUntil.Equal(first.DiscountUntil) {
			t.Errorf("DiscountUntil changed: %v, want %v", second.DiscountUntil, first.DiscountUntil)
		}
		if n, _ := store.CountParticipants(ctx); n != 1 {
			t.Errorf("participants = %d, want 1", n)
		}
	})

	t.Run("outside window never writes", func(t *testing.T) {
		store := storage.NewMemoryStore()
		svc := newTestService(t, store, newRecordingNotifier(), nil)

		early := time.Date(2026, 3, 1, 10, 0, 0, 0, msk)
		for i := 0; i < 3; i++ {
			res, err := svc.Register(ctx, 200, "bob", early)
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if res.Status != WindowClosed {
				t.Fatalf("status = %v, want WindowClosed", res.Status)
			}
		}
		if n, _ := store.CountParticipants(ctx); n != 0 {
			t.Errorf("participants = %d, want 0", n)
		}
	})
}

func TestDraw(t *testing.T) {
	ctx := context.Background()
	registerAt := time.Date(2026, 3, 1, 16, 0, 0, 0, msk)
	drawAt := time.Date(2026, 3, 1, 19, 45, 0, 0, msk)

	seed := func(t *testing.T, store storage.Store, ids ...int64) {
		t.Helper()
		for i, id := range ids {
			joined := registerAt.Add(time.Duration(i) * time.Minute)
			if _, err := store.InsertParticipantIfAbsent(ctx, id, "", joined); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}

	t.Run("too early leaves state unchanged", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seed(t, store, 1, 2, 3)
		svc := newTestService(t, store, newRecordingNotifier(), nil)

		res, err := svc.Draw(ctx, time.Date(2026, 3, 1, 19, 0, 0, 0, msk))
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if res.Status != TooEarly {
			t.Fatalf("status = %v, want TooEarly", res.Status)
		}
		state, _ := store.GiveawayState(ctx)
		if state.Drawn() {
			t.Error("state mutated by too-early draw")
		}
	})

	t.Run("no participants never mutates state", func(t *testing.T) {
		store := storage.NewMemoryStore()
		svc := newTestService(t, store, newRecordingNotifier(), nil)

		res, err := svc.Draw(ctx, drawAt)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if res.Status != NoParticipants {
			t.Fatalf("status = %v, want NoParticipants", res.Status)
		}
		state, _ := store.GiveawayState(ctx)
		if state.Drawn() {
			t.Error("state mutated by empty draw")
		}
	})

	t.Run("winner comes from participant set and is committed", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seed(t, store, 10, 20, 30)
		notifier := newRecordingNotifier()
		svc := newTestService(t, store, notifier, func(n int) int { return n - 1 })

		res, err := svc.Draw(ctx, drawAt)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if res.Status != Drawn {
			t.Fatalf("status = %v, want Drawn", res.Status)
		}
		members := map[int64]bool{10: true, 20: true, 30: true}
		if !members[res.WinnerID] {
			t.Fatalf("winner %d not in participant set", res.WinnerID)
		}
		state, _ := store.GiveawayState(ctx)
		if !state.Drawn() || *state.WinnerID != res.WinnerID {
			t.Errorf("committed winner = %v, want %d", state.WinnerID, res.WinnerID)
		}
		if !res.DrawnAt.Equal(drawAt) {
			t.Errorf("DrawnAt = %v, want %v", res.DrawnAt, drawAt)
		}
		if got := res.CertExpiresAt.In(msk).Format("2006-01-02"); got != "2026-05-30" {
			t.Errorf("CertExpiresAt = %s, want 2026-05-30", got)
		}
		if res.Delivery.Sent != 3 || res.Delivery.Failed != 0 {
			t.Errorf("delivery = %+v, want 3 sent", res.Delivery)
		}
		if len(notifier.photos) != 1 {
			t.Errorf("winner photos = %d, want 1", len(notifier.photos))
		}
		if len(notifier.texts) != 2 {
			t.Errorf("participant texts = %d, want 2", len(notifier.texts))
		}
	})

	t.Run("repeated draw returns original outcome without re-notifying", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seed(t, store, 10, 20, 30)
		notifier := newRecordingNotifier()
		svc := newTestService(t, store, notifier, func(int) int { return 0 })

		first, err := svc.Draw(ctx, drawAt)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		delivered := notifier.totalDeliveries()

		second, err := svc.Draw(ctx, drawAt.Add(time.Hour))
		if err != nil {
			t.Fatalf("second Draw: %v", err)
		}
		if second.Status != AlreadyDrawn {
			t.Fatalf("status = %v, want AlreadyDrawn", second.Status)
		}
		if second.WinnerID != first.WinnerID {
			t.Errorf("winner changed: %d, want %d", second.WinnerID, first.WinnerID)
		}
		if !second.DrawnAt.Equal(first.DrawnAt) {
			t.Errorf("DrawnAt changed: %v, want %v", second.DrawnAt, first.DrawnAt)
		}
		if notifier.totalDeliveries() != delivered {
			t.Error("duplicate draw re-sent notifications")
		}
	})

	t.Run("deterministic pick is reproducible", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			store := storage.NewMemoryStore()
			seed(t, store, 10, 20, 30)
			svc := newTestService(t, store, newRecordingNotifier(), func(int) int { return 1 })
			res, err := svc.Draw(ctx, drawAt)
			if err != nil {
				t.Fatalf("Draw: %v", err)
			}
			ids, _ := store.ParticipantIDs(ctx)
			if res.WinnerID != ids[1] {
				t.Errorf("winner = %d, want ids[1] = %d", res.WinnerID, ids[1])
			}
		}
	})

	t.Run("certificate failure surfaces to the caller", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seed(t, store, 10, 20)
		notifier := newRecordingNotifier()
		svc, err := NewService(Options{
			Store:        store,
			Notifier:     notifier,
			Certificates: failingRenderer{},
			Window:       testWindow(t),
			DiscountDays: 90,
			Messages: DrawMessages{
				WinnerCaption: func(time.Time) string { return "caption" },
				ResultText:    func(string) string { return "result" },
			},
			Pick: func(int) int { return 0 },
		})
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}

		res, err := svc.Draw(ctx, drawAt)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if res.Status != Drawn {
			t.Fatalf("status = %v, want Drawn", res.Status)
		}
		if res.CertificateErr == nil {
			t.Error("render failure missing from the result")
		}
		state, _ := store.GiveawayState(ctx)
		if !state.Drawn() {
			t.Error("render failure prevented the winner commit")
		}
		// Winner degrades to a text send; nobody gets a photo.
		if len(notifier.photos) != 0 {
			t.Errorf("photos sent = %d, want 0", len(notifier.photos))
		}
		if res.Delivery.Sent != 2 || res.Delivery.Failed != 0 {
			t.Errorf("delivery = %+v, want 2 sent", res.Delivery)
		}
		var winnerGotText bool
		for _, s := range notifier.texts {
			if s.userID == res.WinnerID && s.text == "caption" {
				winnerGotText = true
			}
		}
		if !winnerGotText {
			t.Error("winner did not receive the caption as text")
		}
	})

	t.Run("delivery failures are counted and do not abort fan-out", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seed(t, store, 10, 20, 30, 40)
		notifier := newRecordingNotifier()
		notifier.failFor[20] = true
		notifier.failFor[40] = true
		svc := newTestService(t, store, notifier, func(int) int { return 0 })

		res, err := svc.Draw(ctx, drawAt)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if res.Status != Drawn {
			t.Fatalf("status = %v, want Drawn", res.Status)
		}
		if res.Delivery.Sent != 2 || res.Delivery.Failed != 2 {
			t.Errorf("delivery = %+v, want 2 sent / 2 failed", res.Delivery)
		}
		state, _ := store.GiveawayState(ctx)
		if !state.Drawn() {
			t.Error("delivery failures rolled back the committed draw")
		}
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newTestService(t, store, newRecordingNotifier(), func(int) int { return 0 })

	registerAt := time.Date(2026, 3, 1, 16, 0, 0, 0, msk)
	if _, err := svc.Register(ctx, 1, "a", registerAt); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Draw(ctx, time.Date(2026, 3, 1, 19, 30, 0, 0, msk)); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := store.CountParticipants(ctx); n != 0 {
		t.Errorf("participants after reset = %d, want 0", n)
	}
	state, _ := store.GiveawayState(ctx)
	if state.Drawn() {
		t.Error("state still drawn after reset")
	}
}
