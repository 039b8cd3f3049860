package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tutor-bot/internal/bot"
	"tutor-bot/internal/scheduler"
)

// registerChat keeps the chat registry current; the morning summary job
// addresses chats through it.
func registerChat(b *bot.Bot, message *tgbotapi.Message) {
	name := ""
	if message.From != nil {
		name = strings.TrimSpace(message.From.FirstName)
	}
	if name == "" {
		name = "Анастасия"
	}
	if err := b.DB.UpsertChat(context.Background(), message.Chat.ID, name); err != nil {
		zap.L().Error("failed to register chat", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
	}
}

func HandleStart(b *bot.Bot, message *tgbotapi.Message) {
	registerChat(b, message)
	if err := b.SendMessage(message.Chat.ID, "Выберите действие:", bot.MainMenuKeyboard()); err != nil {
		zap.L().Error("failed to send main menu", zap.Error(err))
	}
}

// HandleMessage routes plain-text messages: menu buttons first, then the
// free-text steps of whichever form the user is in.
func HandleMessage(b *bot.Bot, ctrl *scheduler.Controller, message *tgbotapi.Message) {
	// Channel posts carry no sender; there is no form state to route to.
	if message.From == nil {
		return
	}

	registerChat(b, message)
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch text {
	case bot.BtnBack:
		b.ClearState(message.From.ID)
		b.SendMessage(chatID, "Возврат в главное меню.", bot.MainMenuKeyboard())
		return
	case bot.BtnLesson:
		startLessonForm(b, message)
		return
	case bot.BtnEdit:
		startEditMenu(b, message)
		return
	case bot.BtnReport:
		startReportForm(b, message)
		return
	case bot.BtnAll:
		showAll(b, message)
		return
	case bot.BtnDeleteAll:
		b.SendMessage(chatID, "Вы уверены, что хотите удалить все записи?", bot.DeleteAllConfirmKeyboard())
		return
	}

	state := b.GetState(message.From.ID)
	if state == nil {
		// Outside a form only buttons are meaningful; drop the noise.
		_ = b.Delete(chatID, int64(message.MessageID))
		return
	}

	switch state.State {
	case stateLessonStudent:
		handleStudentInput(b, message, state)
	case stateReportName:
		handleReportNameInput(b, message, state)
	case stateReportPayment:
		handleReportPaymentInput(b, ctrl, message, state)
	default:
		_ = b.Delete(chatID, int64(message.MessageID))
	}
}

// HandleCallbackQuery routes inline button presses by callback prefix.
func HandleCallbackQuery(b *bot.Bot, ctrl *scheduler.Controller, callback *tgbotapi.CallbackQuery) {
	parts := strings.Split(callback.Data, ":")
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "school":
		handleSchoolCallback(b, callback, parts)
	case "cal":
		handleCalendarCallback(b, callback, parts)
	case "timeh", "timem":
		handleTimeCallback(b, ctrl, callback, parts)
	case "edit_lesson":
		handlePickEditLesson(b, callback, parts)
	case "report_school":
		handleReportSchoolCallback(b, callback, parts)
	case "open_report":
		handleOpenReportCallback(b, callback)
	case "delete_all":
		handleDeleteAllCallback(b, ctrl, callback, parts)
	default:
		b.AnswerCallbackQuery(callback.ID, "")
	}
}
