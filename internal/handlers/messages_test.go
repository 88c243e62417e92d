package handlers

import (
	"errors"
	"strings"
	"testing"
	"time"

	appconfig "github.com/odjakh/giveaway-bot/internal/config"
)

func TestDrawMessages(t *testing.T) {
	cfg := appconfig.GiveawayConfig{Timezone: "Europe/Moscow"}
	messages := DrawMessages(cfg)

	t.Run("winner name is escaped for markdown delivery", func(t *testing.T) {
		text := messages.ResultText("@under_score")
		if !strings.Contains(text, `@under\_score`) {
			t.Errorf("name not escaped: %q", text)
		}
	})

	t.Run("caption carries the expiry in the campaign zone", func(t *testing.T) {
		expires := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)
		caption := messages.WinnerCaption(expires)
		if !strings.Contains(caption, "30.05.2026") {
			t.Errorf("expiry date missing: %q", caption)
		}
	})
}

func TestMsgDrawConfirmation(t *testing.T) {
	drawnAt := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	expires := drawnAt.AddDate(0, 0, 90)

	t.Run("clean draw has no certificate warning", func(t *testing.T) {
		msg := msgDrawConfirmation(42, "@winner", drawnAt, expires, 3, 0, nil)
		if strings.Contains(msg, "Сертификат не сформирован") {
			t.Errorf("unexpected warning: %q", msg)
		}
	})

	t.Run("render failure is reported to the administrator", func(t *testing.T) {
		msg := msgDrawConfirmation(42, "@winner", drawnAt, expires, 3, 0,
			errors.New("certificate: template asset missing"))
		if !strings.Contains(msg, "Сертификат не сформирован") {
			t.Errorf("warning missing: %q", msg)
		}
		if !strings.Contains(msg, "template asset missing") {
			t.Errorf("cause missing: %q", msg)
		}
	})

	t.Run("winner name is escaped", func(t *testing.T) {
		msg := msgDrawConfirmation(42, "@under_score", drawnAt, expires, 1, 0, nil)
		if !strings.Contains(msg, `@under\_score`) {
			t.Errorf("name not escaped: %q", msg)
		}
	})
}
