package giveaway

import "context"

// Notifier is the outbound message sink the engines publish through.
// The production implementation routes to Telegram; tests substitute a
// recorder so the engines run without any transport attached.
type Notifier interface {
	// SendText delivers a plain text message to the user.
	SendText(ctx context.Context, userID int64, text string) error
	// SendPhoto delivers a photo with a caption to the user.
	SendPhoto(ctx context.Context, userID int64, photo []byte, caption string) error
}
