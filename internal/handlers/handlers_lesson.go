package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tutor-bot/internal/bot"
	"tutor-bot/internal/models"
	"tutor-bot/internal/scheduler"
)

// Booking form states.
const (
	stateLessonSchool    = "lesson_school"
	stateLessonStudent   = "lesson_student"
	stateLessonDate      = "lesson_date"
	stateLessonHour      = "lesson_hour"
	stateLessonMinute    = "lesson_minute"
	stateLessonEndHour   = "lesson_end_hour"
	stateLessonEndMinute = "lesson_end_minute"
	stateEditSelect      = "edit_select"
)

func startLessonForm(b *bot.Bot, message *tgbotapi.Message) {
	b.SetState(message.From.ID, stateLessonSchool, nil)
	b.SendMessage(message.Chat.ID, "В какой школе будет проходить урок?", bot.SchoolKeyboard("school"))
	b.SendMessage(message.Chat.ID, "Нажмите «Назад», чтобы выйти из заполнения.", bot.FormKeyboard())
}

func startEditMenu(b *bot.Bot, message *tgbotapi.Message) {
	lessons, err := b.DB.ListLessonsForChat(context.Background(), message.Chat.ID)
	if err != nil {
		zap.L().Error("failed to list lessons", zap.Error(err))
		b.SendMessage(message.Chat.ID, "Не удалось получить записи. Попробуйте еще раз.", bot.MainMenuKeyboard())
		return
	}
	if len(lessons) == 0 {
		b.SendMessage(message.Chat.ID, "Нет записей для редактирования.", bot.MainMenuKeyboard())
		return
	}

	b.SetState(message.From.ID, stateEditSelect, nil)
	b.SendMessage(message.Chat.ID, "Выберите запись, которую хотите перезаписать:", bot.LessonEditKeyboard(lessons, b.Loc))
	b.SendMessage(message.Chat.ID, "Нажмите «Назад», чтобы выйти.", bot.FormKeyboard())
}

func handlePickEditLesson(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if len(parts) < 2 {
		return
	}
	lessonID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}

	chatID := callback.Message.Chat.ID
	lesson, err := b.DB.GetLesson(context.Background(), chatID, lessonID)
	if err != nil {
		zap.L().Error("failed to load lesson", zap.Error(err), zap.Int64("lesson_id", lessonID))
		return
	}
	if lesson == nil {
		b.ClearState(callback.From.ID)
		b.SendMessage(chatID, "Запись не найдена.", bot.MainMenuKeyboard())
		return
	}

	b.SetState(callback.From.ID, stateLessonSchool, map[string]interface{}{
		"edit_lesson_id": lessonID,
	})
	b.SendMessage(chatID, "Перезапишите урок по шагам.\nСначала выберите школу:", bot.SchoolKeyboard("school"))
}

func handleSchoolCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	state := b.GetState(callback.From.ID)
	if state == nil || state.State != stateLessonSchool || len(parts) < 2 {
		return
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= len(models.Schools) {
		return
	}

	state.TempData["school"] = models.Schools[idx]
	b.SetState(callback.From.ID, stateLessonStudent, state.TempData)
	b.SendMessage(callback.Message.Chat.ID, "Введите имя ученика:", bot.FormKeyboard())
}

func handleStudentInput(b *bot.Bot, message *tgbotapi.Message, state *models.UserState) {
	student := strings.TrimSpace(message.Text)
	if student == "" {
		b.SendMessage(message.Chat.ID, "Введите имя ученика:", bot.FormKeyboard())
		return
	}

	state.TempData["student"] = student
	b.SetState(message.From.ID, stateLessonDate, state.TempData)

	now := time.Now().In(b.Loc)
	b.SendMessage(message.Chat.ID, "Выберите дату урока в календаре:", bot.CalendarKeyboard(now.Year(), now.Month()))
}

func handleCalendarCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	state := b.GetState(callback.From.ID)
	if state == nil || state.State != stateLessonDate || len(parts) < 2 {
		b.AnswerCallbackQuery(callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID

	switch parts[1] {
	case "noop":
		b.AnswerCallbackQuery(callback.ID, "")

	case "prev", "next":
		if len(parts) < 4 {
			return
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		month, err := strconv.Atoi(parts[3])
		if err != nil || month < 1 || month > 12 {
			return
		}
		if parts[1] == "prev" {
			month--
			if month == 0 {
				month = 12
				year--
			}
		} else {
			month++
			if month == 13 {
				month = 1
				year++
			}
		}
		b.AnswerCallbackQuery(callback.ID, "")
		b.EditMessageMarkup(chatID, callback.Message.MessageID, bot.CalendarKeyboard(year, time.Month(month)))

	case "day":
		if len(parts) < 5 {
			return
		}
		year, _ := strconv.Atoi(parts[2])
		month, _ := strconv.Atoi(parts[3])
		day, _ := strconv.Atoi(parts[4])

		selected := time.Date(year, time.Month(month), day, 0, 0, 0, 0, b.Loc)
		now := time.Now().In(b.Loc)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.Loc)
		if selected.Before(today) {
			b.AnswerCallbackQuery(callback.ID, "Нельзя выбрать прошедшую дату")
			return
		}

		b.AnswerCallbackQuery(callback.ID, "")
		state.TempData["date"] = selected.Format("2006-01-02")
		b.SetState(callback.From.ID, stateLessonHour, state.TempData)
		b.EditMessage(chatID, callback.Message.MessageID,
			fmt.Sprintf("Дата выбрана: %s\nВыберите час:", selected.Format("02.01.2006")),
			keyboardPtr(bot.HourKeyboard()))
	}
}

// handleTimeCallback serves the four hour/minute steps; the current form
// state decides which step a timeh/timem press belongs to.
func handleTimeCallback(b *bot.Bot, ctrl *scheduler.Controller, callback *tgbotapi.CallbackQuery, parts []string) {
	state := b.GetState(callback.From.ID)
	if state == nil || len(parts) < 2 {
		b.AnswerCallbackQuery(callback.ID, "")
		return
	}

	switch state.State {
	case stateLessonHour:
		handleStartHour(b, callback, state, parts)
	case stateLessonMinute:
		handleStartMinute(b, callback, state, parts)
	case stateLessonEndHour:
		handleEndHour(b, callback, state, parts)
	case stateLessonEndMinute:
		handleEndMinute(b, ctrl, callback, state, parts)
	default:
		b.AnswerCallbackQuery(callback.ID, "")
	}
}

func handleStartHour(b *bot.Bot, callback *tgbotapi.CallbackQuery, state *models.UserState, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if parts[0] != "timeh" {
		return
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	state.TempData["hour"] = hour
	b.SetState(callback.From.ID, stateLessonMinute, state.TempData)

	date, _ := state.TempData["date"].(string)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("Дата: %s\nЧас: %02d\nВыберите минуты:", formatDateRu(date), hour),
		keyboardPtr(bot.MinuteKeyboard()))
}

func handleStartMinute(b *bot.Bot, callback *tgbotapi.CallbackQuery, state *models.UserState, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if parts[0] != "timem" {
		return
	}
	if parts[1] == "back" {
		b.SetState(callback.From.ID, stateLessonHour, state.TempData)
		date, _ := state.TempData["date"].(string)
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			fmt.Sprintf("Дата: %s\nВыберите час:", formatDateRu(date)),
			keyboardPtr(bot.HourKeyboard()))
		return
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	start, ok := composeInstant(b.Loc, state.TempData, state.TempData["hour"], minute)
	if !ok {
		b.ClearState(callback.From.ID)
		b.SendMessage(callback.Message.Chat.ID, "Дата не выбрана. Начните заново.", bot.MainMenuKeyboard())
		return
	}

	if !start.After(time.Now().In(b.Loc)) {
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			"Дата и время должны быть в будущем.\nВыберите час заново:",
			keyboardPtr(bot.HourKeyboard()))
		b.SetState(callback.From.ID, stateLessonHour, state.TempData)
		return
	}

	state.TempData["start"] = start
	b.SetState(callback.From.ID, stateLessonEndHour, state.TempData)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("Время начала: %s\nВыберите час окончания:", start.Format("15:04")),
		keyboardPtr(bot.HourKeyboard()))
}

func handleEndHour(b *bot.Bot, callback *tgbotapi.CallbackQuery, state *models.UserState, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if parts[0] != "timeh" {
		return
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	start, _ := state.TempData["start"].(time.Time)
	state.TempData["end_hour"] = hour
	b.SetState(callback.From.ID, stateLessonEndMinute, state.TempData)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("Начало: %s\nОкончание, час: %02d\nВыберите минуты окончания:", start.Format("15:04"), hour),
		keyboardPtr(bot.MinuteKeyboard()))
}

func handleEndMinute(b *bot.Bot, ctrl *scheduler.Controller, callback *tgbotapi.CallbackQuery, state *models.UserState, parts []string) {
	b.AnswerCallbackQuery(callback.ID, "")
	if parts[0] != "timem" {
		return
	}

	start, ok := state.TempData["start"].(time.Time)
	if !ok {
		b.ClearState(callback.From.ID)
		b.SendMessage(callback.Message.Chat.ID, "Не найдено время начала. Начните заново.", bot.MainMenuKeyboard())
		return
	}

	if parts[1] == "back" {
		b.SetState(callback.From.ID, stateLessonEndHour, state.TempData)
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			fmt.Sprintf("Начало: %s\nВыберите час окончания:", start.Format("15:04")),
			keyboardPtr(bot.HourKeyboard()))
		return
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	endHour, _ := state.TempData["end_hour"].(int)
	end := time.Date(start.Year(), start.Month(), start.Day(), endHour, minute, 0, 0, b.Loc)

	if !end.After(start) {
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			"Окончание должно быть позже начала.\nВыберите час окончания:",
			keyboardPtr(bot.HourKeyboard()))
		b.SetState(callback.From.ID, stateLessonEndHour, state.TempData)
		return
	}

	finishBooking(b, ctrl, callback, state, start, end)
}

func finishBooking(b *bot.Bot, ctrl *scheduler.Controller, callback *tgbotapi.CallbackQuery, state *models.UserState, start, end time.Time) {
	ctx := context.Background()
	chatID := callback.Message.Chat.ID
	school, _ := state.TempData["school"].(string)
	student, _ := state.TempData["student"].(string)

	header := "Запись сохранена."
	var err error
	if editID, isEdit := state.TempData["edit_lesson_id"].(int64); isEdit {
		var lesson *models.Lesson
		lesson, err = ctrl.Rebook(ctx, chatID, editID, school, student, start, end)
		if err == nil && lesson == nil {
			b.ClearState(callback.From.ID)
			b.SendMessage(chatID, "Запись не найдена.", bot.MainMenuKeyboard())
			return
		}
		header = "Запись обновлена."
	} else {
		_, err = ctrl.Book(ctx, chatID, school, student, start, end)
	}

	b.ClearState(callback.From.ID)
	if err != nil {
		zap.L().Error("failed to save lesson", zap.Error(err), zap.Int64("chat_id", chatID))
		b.SendMessage(chatID, "Не удалось сохранить запись. Попробуйте еще раз.", bot.MainMenuKeyboard())
		return
	}

	b.EditMessage(chatID, callback.Message.MessageID, fmt.Sprintf(
		"%s\nШкола: %s\nУченик: %s\nДата: %s\nУрок: с %s до %s\n\nНапоминания:\n- за 30 минут до начала\n- за 10 минут до конца",
		header, school, student,
		start.Format("02.01.2006"), start.Format("15:04"), end.Format("15:04"),
	), nil)
	b.SendMessage(chatID, "Готово.", bot.MainMenuKeyboard())
}

func composeInstant(loc *time.Location, data map[string]interface{}, hourVal interface{}, minute int) (time.Time, bool) {
	date, ok := data["date"].(string)
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, false
	}
	hour, _ := hourVal.(int)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), true
}

func formatDateRu(isoDate string) string {
	day, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return day.Format("02.01.2006")
}

func keyboardPtr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup {
	return &kb
}
