package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs map[int64]struct{}
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether the provided Telegram id belongs to the admin set.
func (o AdminOptions) IsAdmin(id int64) bool {
	_, ok := o.AdminIDs[id]
	return ok
}

// AdminOnlyMiddleware ensures that only admin users can invoke downstream handlers.
// Admin-only checks fail closed: an empty admin set rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.IsAdmin(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
