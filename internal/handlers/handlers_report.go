package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tutor-bot/internal/bot"
	"tutor-bot/internal/models"
	"tutor-bot/internal/payment"
	"tutor-bot/internal/scheduler"
)

// Report form states.
const (
	stateReportName    = "report_name"
	stateReportSchool  = "report_school"
	stateReportPayment = "report_payment"
)

func startReportForm(b *bot.Bot, message *tgbotapi.Message) {
	b.SetState(message.From.ID, stateReportName, nil)
	b.SendMessage(message.Chat.ID, "Введите Имя Фамилию ученика:", bot.FormKeyboard())
}

// handleOpenReportCallback enters the report form from the post-lesson
// prompt button.
func handleOpenReportCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery) {
	b.AnswerCallbackQuery(callback.ID, "")
	b.SetState(callback.From.ID, stateReportName, nil)
	b.SendMessage(callback.Message.Chat.ID, "Введите Имя Фамилию ученика:", bot.FormKeyboard())
}

func handleReportNameInput(b *bot.Bot, message *tgbotapi.Message, state *models.UserState) {
	name := strings.TrimSpace(message.Text)
	if name == "" {
		b.SendMessage(message.Chat.ID, "Введите Имя Фамилию ученика:", bot.FormKeyboard())
		return
	}

	state.TempData["report_name"] = name
	b.SetState(message.From.ID, stateReportSchool, state.TempData)
	b.SendMessage(message.Chat.ID, "Выберите школу:", bot.SchoolKeyboard("report_school"))
}

func handleReportSchoolCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	state := b.GetState(callback.From.ID)
	if state == nil || state.State != stateReportSchool || len(parts) < 2 {
		return
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= len(models.Schools) {
		return
	}

	state.TempData["report_school"] = models.Schools[idx]
	b.SetState(callback.From.ID, stateReportPayment, state.TempData)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("Школа выбрана: %s", models.Schools[idx]), nil)
	b.SendMessage(callback.Message.Chat.ID, "Введите оплату в гривнах.\nПримеры: 500 или 2*350", bot.FormKeyboard())
}

func handleReportPaymentInput(b *bot.Bot, ctrl *scheduler.Controller, message *tgbotapi.Message, state *models.UserState) {
	raw := strings.TrimSpace(message.Text)
	amount, err := payment.Parse(raw)
	if err != nil {
		if !errors.Is(err, payment.ErrEmptyPayment) {
			zap.L().Debug("payment input rejected", zap.String("raw", raw))
		}
		b.SendMessage(message.Chat.ID, "Неверный формат оплаты. Пример: 500 или 2*350", nil)
		return
	}

	fullName, _ := state.TempData["report_name"].(string)
	school, _ := state.TempData["report_school"].(string)
	chatID := message.Chat.ID

	report, total, err := ctrl.SubmitReport(context.Background(), chatID, fullName, school, raw, amount)
	b.ClearState(message.From.ID)
	if err != nil {
		zap.L().Error("failed to save report", zap.Error(err), zap.Int64("chat_id", chatID))
		b.SendMessage(chatID, "Не удалось сохранить отчет. Попробуйте еще раз.", bot.MainMenuKeyboard())
		return
	}

	b.SendMessage(chatID, fmt.Sprintf(
		"Отчет сохранен:\nИмя Фамилия: %s\nШкола: %s\nОплата: %s\nОбщая сумма оплат: %s",
		report.FullName, report.School,
		payment.FormatUAH(report.Amount), payment.FormatUAH(total),
	), bot.MainMenuKeyboard())
}

// showAll renders lessons grouped by day and school, the recent reports,
// and the per-school plus grand payment totals.
func showAll(b *bot.Bot, message *tgbotapi.Message) {
	ctx := context.Background()
	chatID := message.Chat.ID

	lessons, err := b.DB.ListLessonsForChat(ctx, chatID)
	if err != nil {
		zap.L().Error("failed to list lessons", zap.Error(err), zap.Int64("chat_id", chatID))
		b.SendMessage(chatID, "Не удалось получить записи. Попробуйте еще раз.", bot.MainMenuKeyboard())
		return
	}
	b.SendMessage(chatID, GroupedLessonsText(lessons, b.Loc), bot.MainMenuKeyboard())

	reports, err := b.DB.ListReportsForChat(ctx, chatID, 100)
	if err != nil {
		zap.L().Error("failed to list reports", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}
	if len(reports) == 0 {
		b.SendMessage(chatID, "Отчеты: нет записей", bot.MainMenuKeyboard())
		return
	}

	totals, err := b.DB.TotalsBySchool(ctx, chatID)
	if err != nil {
		zap.L().Error("failed to total payments", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}
	grand, err := b.DB.TotalPayments(ctx, chatID)
	if err != nil {
		zap.L().Error("failed to total payments", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}

	lines := []string{"Отчеты:"}
	for _, r := range reports {
		lines = append(lines, fmt.Sprintf(
			"- %s | %s | %s | оплата: %s",
			r.CreatedAt.In(b.Loc).Format("02.01.2006 15:04"),
			r.FullName, r.School, payment.FormatUAH(r.Amount),
		))
	}
	lines = append(lines, "", "Сумма по школам:")
	for _, school := range models.Schools {
		lines = append(lines, fmt.Sprintf("- %s: %s", school, payment.FormatUAH(totals[school])))
	}
	lines = append(lines, "", fmt.Sprintf("Итого оплата: %s", payment.FormatUAH(grand)))
	b.SendMessage(chatID, strings.Join(lines, "\n"), bot.MainMenuKeyboard())
}

func handleDeleteAllCallback(b *bot.Bot, ctrl *scheduler.Controller, callback *tgbotapi.CallbackQuery, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if len(parts) < 2 {
		return
	}
	chatID := callback.Message.Chat.ID

	switch parts[1] {
	case "confirm":
		b.ClearState(callback.From.ID)
		if err := ctrl.DeleteAll(context.Background(), chatID); err != nil {
			zap.L().Error("failed to delete all records", zap.Error(err), zap.Int64("chat_id", chatID))
			b.SendMessage(chatID, "Не удалось удалить записи. Попробуйте еще раз.", bot.MainMenuKeyboard())
			return
		}
		b.EditMessage(chatID, callback.Message.MessageID, "Все записи удалены.", nil)
		b.SendMessage(chatID, "Готово.", bot.MainMenuKeyboard())
	case "cancel":
		b.EditMessage(chatID, callback.Message.MessageID, "Удаление отменено.", nil)
	}
}
