package giveaway

import "time"

// RegisterStatus enumerates the outcomes of a registration attempt.
type RegisterStatus int

const (
	// Registered means a new participant row was created.
	Registered RegisterStatus = iota
	// AlreadyRegistered means the user was registered earlier; JoinedAt
	// carries the original timestamp.
	AlreadyRegistered
	// WindowClosed means the attempt fell outside the registration window.
	WindowClosed
)

// RegisterResult reports a registration attempt. DiscountUntil is derived
// from the effective JoinedAt and the configured discount period.
type RegisterResult struct {
	Status        RegisterStatus
	JoinedAt      time.Time
	DiscountUntil time.Time
}

// DrawStatus enumerates the outcomes of a draw attempt.
type DrawStatus int

const (
	// Drawn means this call committed the winner and ran the fan-out.
	Drawn DrawStatus = iota
	// TooEarly means the draw-eligibility instant has not been reached.
	TooEarly
	// AlreadyDrawn means a winner was committed earlier; WinnerID and
	// DrawnAt surface the stored outcome without re-drawing or re-notifying.
	AlreadyDrawn
	// NoParticipants means the participant table is empty; state unchanged.
	NoParticipants
)

// DeliveryReport counts per-recipient notification outcomes of the fan-out.
// Individual failures are logged and counted, never propagated.
type DeliveryReport struct {
	Sent   int
	Failed int
}

// DrawResult reports a draw attempt back to the calling administrator.
// CertificateErr carries a failed certificate render; the draw itself
// still commits and the winner is notified by plain text instead.
type DrawResult struct {
	Status         DrawStatus
	WinnerID       int64
	WinnerName     string
	DrawnAt        time.Time
	CertExpiresAt  time.Time
	Delivery       DeliveryReport
	CertificateErr error
}
