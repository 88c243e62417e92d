package giveaway

import (
	"fmt"
	"time"
)

// Window is the daily registration window expressed as civil clock times in
// a fixed timezone. The draw becomes eligible at the window's end instant.
type Window struct {
	loc       *time.Location
	startHour int
	startMin  int
	endHour   int
	endMin    int
}

// NewWindow parses "HH:MM" boundaries in the given location.
func NewWindow(start, end string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.Parse("15:04", start)
	if err != nil {
		return Window{}, fmt.Errorf("window start %q: %w", start, err)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return Window{}, fmt.Errorf("window end %q: %w", end, err)
	}
	w := Window{
		loc:       loc,
		startHour: s.Hour(), startMin: s.Minute(),
		endHour: e.Hour(), endMin: e.Minute(),
	}
	if w.minutesEnd() <= w.minutesStart() {
		return Window{}, fmt.Errorf("window end %q is not after start %q", end, start)
	}
	return w, nil
}

func (w Window) minutesStart() int { return w.startHour*60 + w.startMin }
func (w Window) minutesEnd() int   { return w.endHour*60 + w.endMin }

func localSeconds(now time.Time, loc *time.Location) int {
	local := now.In(loc)
	return (local.Hour()*60+local.Minute())*60 + local.Second()
}

// Contains reports whether now falls inside the registration window. The
// window closes at the end instant exactly: HH:MM:00 is the last accepted
// second. The instant is converted to the window's zone before comparison; a
// naive comparison in the caller's zone would accept out-of-window
// registrations.
func (w Window) Contains(now time.Time) bool {
	secs := localSeconds(now, w.loc)
	return secs >= w.minutesStart()*60 && secs <= w.minutesEnd()*60
}

// DrawEligible reports whether the draw may run at the given instant,
// i.e. the local clock has reached the window's end.
func (w Window) DrawEligible(now time.Time) bool {
	return localSeconds(now, w.loc) >= w.minutesEnd()*60
}

// Location exposes the window timezone for date formatting.
func (w Window) Location() *time.Location {
	return w.loc
}
