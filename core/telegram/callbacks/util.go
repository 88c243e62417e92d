package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Split returns the callback's unique key and payload. Telebot's update
// processing fills Unique and leaves the payload in Data; raw callbacks
// still carry the full \f<unique>|<payload> encoding in Data.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// CallbackKey returns the unique key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := Split(c.Callback())
	return k
}

// CallbackPayload returns the payload of the current callback.
func CallbackPayload(c tele.Context) string {
	_, p := Split(c.Callback())
	return p
}
