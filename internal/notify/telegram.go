package notify

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// ErrNotBound is returned when a send is attempted before the bot is attached.
var ErrNotBound = errors.New("notify: telegram bot not bound")

// Telegram delivers giveaway messages to arbitrary chat users through the
// bot API. Sends are synchronous so the draw fan-out can collect a
// per-recipient delivery report; transient transport failures are already
// retried by the bot's HTTP client. All outbound text is Markdown; callers
// escape interpolated user content.
type Telegram struct {
	bot atomic.Pointer[tele.Bot]
}

// NewTelegram returns an unbound notifier; Bind attaches the bot at startup.
func NewTelegram() *Telegram {
	return &Telegram{}
}

// Bind attaches the running bot instance.
func (t *Telegram) Bind(bot *tele.Bot) {
	t.bot.Store(bot)
}

// SendText delivers a Markdown text message to the user.
func (t *Telegram) SendText(_ context.Context, userID int64, text string) error {
	bot := t.bot.Load()
	if bot == nil {
		return ErrNotBound
	}
	_, err := bot.Send(&tele.User{ID: userID}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}

// SendPhoto delivers a photo with a Markdown caption to the user.
func (t *Telegram) SendPhoto(_ context.Context, userID int64, photo []byte, caption string) error {
	bot := t.bot.Load()
	if bot == nil {
		return ErrNotBound
	}
	p := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(photo)),
		Caption: caption,
	}
	_, err := bot.Send(&tele.User{ID: userID}, p, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
