package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreInsertConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.InsertParticipantIfAbsent(ctx, 42, "racer", base.Add(time.Duration(i)*time.Second))
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			if res.Inserted {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if inserted != 1 {
		t.Errorf("inserted = %d, want exactly 1", inserted)
	}
	n, err := store.CountParticipants(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("participants = %d, want 1", n)
	}

	// Every loser must have seen the single committed timestamp.
	p, err := store.GetParticipant(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p == nil {
		t.Fatal("participant missing after insert")
	}
	res, err := store.InsertParticipantIfAbsent(ctx, 42, "racer", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeat insert: %v", err)
	}
	if res.Inserted || !res.JoinedAt.Equal(p.JoinedAt) {
		t.Errorf("repeat insert = %+v, want original JoinedAt %v", res, p.JoinedAt)
	}
}

func TestMemoryStoreSetWinnerConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	drawnAt := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.SetWinner(ctx, int64(100+i), drawnAt)
			switch {
			case err == nil:
				mu.Lock()
				committed++
				mu.Unlock()
			case errors.Is(err, ErrAlreadyDrawn):
			default:
				t.Errorf("set winner: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if committed != 1 {
		t.Errorf("committed = %d, want exactly 1", committed)
	}
	state, err := store.GiveawayState(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.Drawn() {
		t.Fatal("state not drawn after commit")
	}
	if *state.WinnerID < 100 || *state.WinnerID >= 100+workers {
		t.Errorf("winner %d not from the competing set", *state.WinnerID)
	}
	if !state.DrawnAt.Equal(drawnAt) {
		t.Errorf("DrawnAt = %v, want %v", state.DrawnAt, drawnAt)
	}
}

func TestMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	// Insert out of join order; same-instant rows tie-break on user_id.
	inserts := []struct {
		id     int64
		offset time.Duration
	}{
		{id: 3, offset: 2 * time.Minute},
		{id: 1, offset: 0},
		{id: 5, offset: time.Minute},
		{id: 2, offset: time.Minute},
	}
	for _, in := range inserts {
		if _, err := store.InsertParticipantIfAbsent(ctx, in.id, "", base.Add(in.offset)); err != nil {
			t.Fatalf("insert %d: %v", in.id, err)
		}
	}

	list, err := store.ListParticipants(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{1, 2, 5, 3}
	if len(list) != len(wantOrder) {
		t.Fatalf("len = %d, want %d", len(list), len(wantOrder))
	}
	for i, want := range wantOrder {
		if list[i].UserID != want {
			t.Errorf("list[%d] = %d, want %d", i, list[i].UserID, want)
		}
	}

	ids, err := store.ParticipantIDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	wantIDs := []int64{1, 2, 3, 5}
	for i, want := range wantIDs {
		if ids[i] != want {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want)
		}
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	at := time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC)

	if _, err := store.InsertParticipantIfAbsent(ctx, 1, "a", at); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.SetWinner(ctx, 1, at); err != nil {
		t.Fatalf("set winner: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if n, _ := store.CountParticipants(ctx); n != 0 {
		t.Errorf("participants = %d, want 0", n)
	}
	state, _ := store.GiveawayState(ctx)
	if state.Drawn() {
		t.Error("state drawn after reset")
	}

	// The cleared state must accept a fresh winner commit.
	if err := store.SetWinner(ctx, 2, at.Add(time.Hour)); err != nil {
		t.Errorf("set winner after reset: %v", err)
	}
}
