package handlers

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/odjakh/giveaway-bot/core/telegram"
	"github.com/odjakh/giveaway-bot/core/telegram/callbacks"
	"github.com/odjakh/giveaway-bot/core/telegram/commands"
	tghelpers "github.com/odjakh/giveaway-bot/core/telegram/helpers"
	"github.com/odjakh/giveaway-bot/core/telegram/keyboard"
	"github.com/odjakh/giveaway-bot/core/telegram/middleware"
	appconfig "github.com/odjakh/giveaway-bot/internal/config"
	"github.com/odjakh/giveaway-bot/internal/export"
	"github.com/odjakh/giveaway-bot/internal/giveaway"
)

const exportFileName = "odjax_participants.csv"

// Handlers wires the giveaway engines to the Telegram command surface.
type Handlers struct {
	svc      *giveaway.Service
	exporter *export.Exporter
	cfg      appconfig.GiveawayConfig
	loc      *time.Location
	admin    middleware.AdminOptions

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New builds the handler set.
func New(svc *giveaway.Service, exporter *export.Exporter, cfg appconfig.GiveawayConfig, adminIDs map[int64]struct{}) *Handlers {
	h := &Handlers{
		svc:      svc,
		exporter: exporter,
		cfg:      cfg,
		loc:      cfg.Location(),
		now:      time.Now,
	}
	h.admin = middleware.AdminOptions{
		AdminIDs: adminIDs,
		OnReject: h.denyAccess,
	}
	return h
}

// AdminOptions exposes the admin check used for command routing.
func (h *Handlers) AdminOptions() middleware.AdminOptions {
	return h.admin
}

// DrawMessages supplies the fan-out texts for the draw engine. The texts
// are delivered as Markdown, so the winner name is escaped here.
func DrawMessages(cfg appconfig.GiveawayConfig) giveaway.DrawMessages {
	loc := cfg.Location()
	return giveaway.DrawMessages{
		WinnerCaption: func(expiresAt time.Time) string {
			return msgWinnerCaption(expiresAt.In(loc))
		},
		ResultText: func(winnerName string) string {
			return msgResultText(mdSafe(winnerName))
		},
	}
}

// Register declares all commands, the participate button fallback, and the
// reset confirmation callbacks on the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Приветствие и условия розыгрыша",
	})
	reg.RegisterCommand("/id", commands.Command{
		Handler:     h.MyID,
		Description: "Показать свой Telegram ID",
	})
	reg.RegisterCommand("/count", commands.Command{
		Handler:     h.Count,
		Description: "Количество участников",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/export", commands.Command{
		Handler:     h.Export,
		Description: "Выгрузка участников (CSV)",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/export_text", commands.Command{
		Handler:     h.ExportText,
		Description: "Выгрузка участников (текст)",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/draw", commands.Command{
		Handler:     h.Draw,
		Description: "Провести розыгрыш",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     h.Reset,
		Description: "Очистить участников и итоги",
		AdminOnly:   true,
		Hidden:      true,
	})

	reg.SetTextFallback(h.Text)
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.EditOrSend(msgStaleButton)
	})

	adminOnly := middleware.AdminOnlyMiddleware(h.admin)
	_ = reg.RegisterCallback("reset_confirm", adminOnly(h.ResetConfirm))
	_ = reg.RegisterCallback("reset_cancel", adminOnly(h.ResetCancel))
}

func (h *Handlers) denyAccess(c tele.Context) error {
	return tghelpers.SendText(c, msgAccessDenied)
}

// Start greets the user and shows the participate keyboard.
func (h *Handlers) Start(c tele.Context) error {
	kb := keyboard.ReplyButtons([]string{Participate})
	return tghelpers.SendMD(c, msgStart(h.cfg.WindowStart, h.cfg.WindowEnd), kb)
}

// Text handles non-command text; only the participate button is meaningful.
func (h *Handlers) Text(c tele.Context) error {
	if c.Text() != Participate {
		return nil
	}
	return h.participate(c)
}

func (h *Handlers) participate(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()

	res, err := h.svc.Register(ctx, sender.ID, sender.Username, h.now())
	if err != nil {
		return err
	}

	switch res.Status {
	case giveaway.WindowClosed:
		return tghelpers.SendText(c, fmt.Sprintf(msgWindowClosed, h.cfg.WindowStart, h.cfg.WindowEnd))
	case giveaway.AlreadyRegistered:
		return tghelpers.SendMD(c, msgAlreadyRegistered(h.cfg.PromoCode, h.cfg.DiscountPercent, res.DiscountUntil.In(h.loc)))
	default:
		return tghelpers.SendMD(c, msgRegistered(h.cfg.WindowEnd, h.cfg.PromoCode, h.cfg.DiscountPercent, res.DiscountUntil.In(h.loc)))
	}
}

// MyID replies with the sender's Telegram id.
func (h *Handlers) MyID(c tele.Context) error {
	return tghelpers.SendText(c, msgMyID(c.Sender().ID))
}

// Count reports the participant total to the administrator.
func (h *Handlers) Count(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	n, err := h.svc.Count(ctx)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, msgCount(n))
}

// Export sends the participant table as a CSV document.
func (h *Handlers) Export(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	participants, err := h.svc.Participants(ctx)
	if err != nil {
		return err
	}
	data, ok := h.exporter.CSV(participants)
	if !ok {
		return tghelpers.SendText(c, msgNoParticipants)
	}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: exportFileName,
		Caption:  msgExportCaption(len(participants)),
	}
	return c.Send(doc)
}

// ExportText sends the participant table as numbered text chunks.
func (h *Handlers) ExportText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	participants, err := h.svc.Participants(ctx)
	if err != nil {
		return err
	}
	chunks := h.exporter.Text(participants)
	if len(chunks) == 0 {
		return tghelpers.SendText(c, msgNoParticipants)
	}
	for _, chunk := range chunks {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Draw runs the prize draw and reports the outcome to the administrator.
func (h *Handlers) Draw(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res, err := h.svc.Draw(ctx, h.now())
	if err != nil {
		return err
	}

	switch res.Status {
	case giveaway.TooEarly:
		return tghelpers.SendText(c, fmt.Sprintf(msgTooEarly, h.cfg.WindowEnd))
	case giveaway.NoParticipants:
		return tghelpers.SendText(c, msgNoParticipants)
	case giveaway.AlreadyDrawn:
		return tghelpers.SendMD(c, msgAlreadyDrawn(res.WinnerID, res.WinnerName, res.DrawnAt.In(h.loc)))
	default:
		return tghelpers.SendMD(c, msgDrawConfirmation(
			res.WinnerID, res.WinnerName,
			res.DrawnAt.In(h.loc), res.CertExpiresAt.In(h.loc),
			res.Delivery.Sent, res.Delivery.Failed,
			res.CertificateErr,
		))
	}
}

// Reset asks for confirmation before the destructive clear. The prompt
// carries the requesting admin's id so only they can act on it.
func (h *Handlers) Reset(c tele.Context) error {
	requester := strconv.FormatInt(c.Sender().ID, 10)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: btnResetYes, Unique: "reset_confirm", Data: requester},
		{Text: btnResetNo, Unique: "reset_cancel", Data: requester},
	})
	return tghelpers.SendText(c, msgResetConfirm, &tele.SendOptions{ReplyMarkup: markup})
}

// ResetConfirm clears all participants and the draw outcome.
func (h *Handlers) ResetConfirm(c tele.Context) error {
	if !h.resetRequestedBy(c) {
		return tghelpers.SendText(c, msgResetForeign)
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.svc.Reset(ctx); err != nil {
		return err
	}
	return c.EditOrSend(msgResetDone)
}

// ResetCancel dismisses the confirmation prompt.
func (h *Handlers) ResetCancel(c tele.Context) error {
	if !h.resetRequestedBy(c) {
		return tghelpers.SendText(c, msgResetForeign)
	}
	return c.EditOrSend(msgResetCancelled)
}

func (h *Handlers) resetRequestedBy(c tele.Context) bool {
	requester, err := callbacks.PayloadInt64(c)
	if err != nil {
		return false
	}
	return requester == c.Sender().ID
}
