package handlers

import (
	"fmt"
	"time"

	"github.com/odjakh/giveaway-bot/core/telegram/format"
)

// Participate is the reply-keyboard button text that triggers registration.
const Participate = "✅ Участвовать"

const (
	msgAccessDenied = "⛔ Эта команда доступна только администраторам."

	msgWindowClosed = "⛔ Регистрация закрыта. Участвовать можно только с %s до %s (МСК)."

	msgNoParticipants = "Участников нет."
	msgTooEarly       = "⏳ Розыгрыш ещё не начался. Итоги подводим в %s (МСК)."
	msgResetDone      = "Список участников очищен ✅"
	msgResetCancelled = "Сброс отменён."
	msgResetConfirm   = "Удалить всех участников и итоги розыгрыша?"
	msgResetForeign   = "Подтвердить сброс может только запросивший его администратор."
	msgStaleButton    = "Кнопка устарела."

	btnResetYes = "Да, очистить"
	btnResetNo  = "Отмена"
)

const dateLayout = "02.01.2006"

// mdSafe escapes a user-controlled value (usernames may carry underscores)
// for interpolation into Markdown messages.
func mdSafe(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

func msgStart(windowStart, windowEnd string) string {
	return "Добро пожаловать в розыгрыш от кафе «Оджах» 🔥\n" +
		"📍 Ярославль\n\n" +
		"🎁 Приз: сертификат *1500 ₽* на ужин\n\n" +
		fmt.Sprintf("🕒 Участие: *с %s до %s* (МСК)\n", windowStart, windowEnd) +
		fmt.Sprintf("🎉 Итоги: *в %s*\n\n", windowEnd) +
		"Нажмите кнопку ниже, чтобы участвовать 👇"
}

func msgRegistered(windowEnd, promoCode string, discountPercent int, discountUntil time.Time) string {
	return "✅ Вы зарегистрированы!\n\n" +
		fmt.Sprintf("🎉 Итоги сегодня в *%s* (МСК).\n\n", windowEnd) +
		fmt.Sprintf("🎁 Ваш бонус: скидка *%d%%* до *%s*\n", discountPercent, discountUntil.Format(dateLayout)) +
		fmt.Sprintf("Промокод: *%s*", promoCode)
}

func msgAlreadyRegistered(promoCode string, discountPercent int, discountUntil time.Time) string {
	return "Вы уже участвуете ✅\n\n" +
		fmt.Sprintf("🎁 Ваш бонус: скидка *%d%%* до *%s*\n", discountPercent, discountUntil.Format(dateLayout)) +
		fmt.Sprintf("Промокод: *%s*", promoCode)
}

func msgWinnerCaption(expiresAt time.Time) string {
	return "🎉 Поздравляем! Вы выиграли сертификат *1500 ₽* на ужин в кафе «Оджах»!\n\n" +
		fmt.Sprintf("Сертификат действителен до *%s*.\n", expiresAt.Format(dateLayout)) +
		"Покажите это сообщение администратору кафе."
}

func msgResultText(winnerName string) string {
	return fmt.Sprintf("🎉 Розыгрыш завершён! Победитель: %s\n\n"+
		"Спасибо за участие — ваш промокод на скидку остаётся в силе.", winnerName)
}

func msgDrawConfirmation(winnerID int64, winnerName string, drawnAt, expiresAt time.Time, sent, failed int, certErr error) string {
	msg := fmt.Sprintf(
		"🎉 Победитель: *%s* (tg://user?id=%d)\n"+
			"Время розыгрыша: %s\n"+
			"Сертификат действителен до: %s\n"+
			"Уведомления: доставлено %d, не доставлено %d",
		mdSafe(winnerName), winnerID,
		drawnAt.Format("02.01.2006 15:04"),
		expiresAt.Format(dateLayout),
		sent, failed,
	)
	if certErr != nil {
		msg += fmt.Sprintf("\n⚠️ Сертификат не сформирован (%s); победитель получил текстовое уведомление.",
			mdSafe(certErr.Error()))
	}
	return msg
}

func msgAlreadyDrawn(winnerID int64, winnerName string, drawnAt time.Time) string {
	return fmt.Sprintf(
		"Розыгрыш уже проведён.\nПобедитель: *%s* (tg://user?id=%d)\nВремя: %s",
		mdSafe(winnerName), winnerID, drawnAt.Format("02.01.2006 15:04"),
	)
}

func msgCount(n int) string {
	return fmt.Sprintf("Участников сейчас: %d", n)
}

func msgExportCaption(n int) string {
	return fmt.Sprintf("Выгрузка участников: %d чел.", n)
}

func msgMyID(id int64) string {
	return fmt.Sprintf("Ваш Telegram ID: %d", id)
}
