package export

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/odjakh/giveaway-bot/internal/storage"
)

var msk = time.FixedZone("MSK", 3*60*60)

func sampleParticipants() []storage.Participant {
	return []storage.Participant{
		{UserID: 111, Username: "alice", JoinedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)},
		{UserID: 222, Username: "", JoinedAt: time.Date(2026, 3, 1, 13, 5, 0, 0, time.UTC)},
		{UserID: 333, Username: "bob,the,builder", JoinedAt: time.Date(2026, 3, 1, 13, 10, 0, 0, time.UTC)},
	}
}

func TestCSV(t *testing.T) {
	e := NewExporter(msk, 90)

	t.Run("empty table", func(t *testing.T) {
		if data, ok := e.CSV(nil); ok || data != nil {
			t.Errorf("CSV(nil) = (%q, %v), want empty", data, ok)
		}
	})

	t.Run("rows", func(t *testing.T) {
		data, ok := e.CSV(sampleParticipants())
		if !ok {
			t.Fatal("CSV returned not-ok for non-empty table")
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) != 4 {
			t.Fatalf("lines = %d, want header + 3 rows", len(lines))
		}
		if lines[0] != "user_id,username,joined_at_msk,discount_until" {
			t.Errorf("header = %q", lines[0])
		}
		// 13:00 UTC renders as 16:00 MSK; +90 days from 01.03 is 30.05.
		if lines[1] != "111,alice,01.03.2026 16:00,30.05.2026" {
			t.Errorf("row 1 = %q", lines[1])
		}
		if lines[2] != "222,,01.03.2026 16:05,30.05.2026" {
			t.Errorf("row 2 = %q", lines[2])
		}
	})

	t.Run("commas in username are sanitized", func(t *testing.T) {
		data, _ := e.CSV(sampleParticipants())
		lines := strings.Split(string(data), "\n")
		row := lines[3]
		if strings.Count(row, ",") != 3 {
			t.Errorf("row has stray commas: %q", row)
		}
		if !strings.Contains(row, "bob the builder") {
			t.Errorf("username not sanitized: %q", row)
		}
	})
}

func TestText(t *testing.T) {
	e := NewExporter(msk, 90)

	t.Run("empty table", func(t *testing.T) {
		if chunks := e.Text(nil); chunks != nil {
			t.Errorf("Text(nil) = %q, want nil", chunks)
		}
	})

	t.Run("numbering and placeholder", func(t *testing.T) {
		chunks := e.Text(sampleParticipants())
		if len(chunks) != 1 {
			t.Fatalf("chunks = %d, want 1", len(chunks))
		}
		lines := strings.Split(chunks[0], "\n")
		if len(lines) != 3 {
			t.Fatalf("lines = %d, want 3", len(lines))
		}
		if lines[0] != "1) @alice | id:111 | участие: 01.03.2026 16:00 | скидка до: 30.05.2026" {
			t.Errorf("line 1 = %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "2) — | id:222") {
			t.Errorf("empty username placeholder missing: %q", lines[1])
		}
	})

	t.Run("large table splits into bounded chunks", func(t *testing.T) {
		participants := make([]storage.Participant, 300)
		for i := range participants {
			participants[i] = storage.Participant{
				UserID:   int64(1000 + i),
				Username: "участник_с_длинным_именем",
				JoinedAt: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
			}
		}
		chunks := e.Text(participants)
		if len(chunks) < 2 {
			t.Fatalf("chunks = %d, want a split", len(chunks))
		}
		total := 0
		for i, chunk := range chunks {
			if n := utf8.RuneCountInString(chunk); n > ChunkLimit {
				t.Errorf("chunk %d has %d runes, limit %d", i, n, ChunkLimit)
			}
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d is not valid UTF-8", i)
			}
			total += len(strings.Split(chunk, "\n"))
		}
		if total != len(participants) {
			t.Errorf("lines across chunks = %d, want %d", total, len(participants))
		}
		// Splits land on line boundaries: every chunk starts with a number.
		for i, chunk := range chunks {
			first := strings.SplitN(chunk, ")", 2)[0]
			if first == "" || strings.ContainsAny(first, "|@") {
				t.Errorf("chunk %d does not start on a line boundary: %q", i, chunk[:40])
			}
		}
	})
}

func TestChunkLines(t *testing.T) {
	t.Run("oversized line is split at rune boundaries", func(t *testing.T) {
		long := strings.Repeat("ж", 25)
		chunks := chunkLines([]string{"short", long, "tail"}, 10)
		for i, chunk := range chunks {
			if n := utf8.RuneCountInString(chunk); n > 10 {
				t.Errorf("chunk %d has %d runes", i, n)
			}
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d is not valid UTF-8", i)
			}
		}
		joined := strings.Join(chunks, "")
		if !strings.Contains(strings.ReplaceAll(joined, "\n", ""), "short") {
			t.Error("content dropped during split")
		}
		if got := strings.Count(joined, "ж"); got != 25 {
			t.Errorf("runes survived = %d, want 25", got)
		}
	})

	t.Run("exact fit packs without splitting", func(t *testing.T) {
		chunks := chunkLines([]string{"aaaa", "bbbb"}, 9)
		if len(chunks) != 1 || chunks[0] != "aaaa\nbbbb" {
			t.Errorf("chunks = %q, want single packed chunk", chunks)
		}
	})

	t.Run("separator counts against the limit", func(t *testing.T) {
		chunks := chunkLines([]string{"aaaa", "bbbb"}, 8)
		if len(chunks) != 2 {
			t.Fatalf("chunks = %d, want 2", len(chunks))
		}
	})
}
