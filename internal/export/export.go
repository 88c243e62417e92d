package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/odjakh/giveaway-bot/internal/storage"
)

const (
	csvHeader = "user_id,username,joined_at_msk,discount_until\n"

	// ChunkLimit bounds a single text export message, in runes, so chunks
	// fit Telegram's message size with headroom.
	ChunkLimit = 3500

	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

// Exporter renders participant table snapshots. Row order always follows
// the store's joined_at ascending order, so repeated exports are stable
// absent new writes.
type Exporter struct {
	loc          *time.Location
	discountDays int
}

// NewExporter formats timestamps in the given campaign timezone.
func NewExporter(loc *time.Location, discountDays int) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	if discountDays <= 0 {
		discountDays = 90
	}
	return &Exporter{loc: loc, discountDays: discountDays}
}

// CSV renders the participant table as a CSV document. The second return
// value is false when there are no participants; that is an empty result,
// not an error.
func (e *Exporter) CSV(participants []storage.Participant) ([]byte, bool) {
	if len(participants) == 0 {
		return nil, false
	}

	var b strings.Builder
	b.WriteString(csvHeader)
	for _, p := range participants {
		joined := p.JoinedAt.In(e.loc)
		until := joined.AddDate(0, 0, e.discountDays)
		// Commas would break the row layout; usernames never need them.
		username := strings.ReplaceAll(p.Username, ",", " ")
		fmt.Fprintf(&b, "%d,%s,%s,%s\n",
			p.UserID,
			username,
			joined.Format(dateTimeLayout),
			until.Format(dateLayout),
		)
	}
	return []byte(b.String()), true
}

// Text renders the table as a numbered human-readable list, split into
// chunks of at most ChunkLimit runes. Splitting happens on whole lines
// only, so multi-byte characters are never broken and no content is
// duplicated or dropped.
func (e *Exporter) Text(participants []storage.Participant) []string {
	if len(participants) == 0 {
		return nil
	}

	lines := make([]string, 0, len(participants))
	for i, p := range participants {
		joined := p.JoinedAt.In(e.loc)
		until := joined.AddDate(0, 0, e.discountDays)
		username := p.Username
		if username == "" {
			username = "—"
		} else {
			username = "@" + username
		}
		lines = append(lines, fmt.Sprintf("%d) %s | id:%d | участие: %s | скидка до: %s",
			i+1,
			username,
			p.UserID,
			joined.Format(dateTimeLayout),
			until.Format(dateLayout),
		))
	}
	return chunkLines(lines, ChunkLimit)
}

// chunkLines greedily packs whole lines into chunks of at most limit runes.
// An oversized line is hard-split at rune boundaries so no chunk ever
// exceeds the limit.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
		length  int
	)
	flush := func() {
		if length > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
	}
	for _, line := range lines {
		if runes := []rune(line); len(runes) > limit {
			flush()
			for len(runes) > limit {
				chunks = append(chunks, string(runes[:limit]))
				runes = runes[limit:]
			}
			line = string(runes)
			if line == "" {
				continue
			}
		}
		lineLen := len([]rune(line))
		sep := 0
		if length > 0 {
			sep = 1
		}
		if length+sep+lineLen > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte('\n')
			length++
		}
		current.WriteString(line)
		length += lineLen
	}
	flush()
	return chunks
}
