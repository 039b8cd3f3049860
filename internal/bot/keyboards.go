package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tutor-bot/internal/models"
)

// Main menu button labels.
const (
	BtnLesson    = "Записать на урок"
	BtnReport    = "Отчет о уроке"
	BtnAll       = "Все записи"
	BtnEdit      = "Редактировать запись"
	BtnDeleteAll = "Удалить все записи"
	BtnBack      = "Назад"
)

var monthsRu = []string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnLesson),
			tgbotapi.NewKeyboardButton(BtnReport),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAll),
			tgbotapi.NewKeyboardButton(BtnEdit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnDeleteAll),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func FormKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(BtnBack)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func SchoolKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for idx, school := range models.Schools {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(school, fmt.Sprintf("%s:%d", prefix, idx)),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// CalendarKeyboard renders a month grid with prev/next paging. Callback
// data: cal:prev:Y:M, cal:next:Y:M, cal:day:Y:M:D, cal:noop.
// Out-of-range months roll over into the adjacent year, so callback
// payloads can never index past the month names.
func CalendarKeyboard(year int, month time.Month) tgbotapi.InlineKeyboardMarkup {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("◀", fmt.Sprintf("cal:prev:%d:%d", year, int(month))),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d", monthsRu[month-1], year), "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("▶", fmt.Sprintf("cal:next:%d:%d", year, int(month))),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("Пн", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Вт", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Ср", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Чт", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Пт", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Сб", "cal:noop"),
			tgbotapi.NewInlineKeyboardButtonData("Вс", "cal:noop"),
		},
	}

	daysInMonth := first.AddDate(0, 1, -1).Day()
	// Monday-based column of the 1st.
	offset := (int(first.Weekday()) + 6) % 7

	week := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, tgbotapi.NewInlineKeyboardButtonData("·", "cal:noop"))
	}
	for day := 1; day <= daysInMonth; day++ {
		week = append(week, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", day),
			fmt.Sprintf("cal:day:%d:%d:%d", year, int(month), day),
		))
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, tgbotapi.NewInlineKeyboardButtonData("·", "cal:noop"))
		}
		rows = append(rows, week)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func HourKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for hour := 0; hour < 24; hour++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%02d", hour), fmt.Sprintf("timeh:%d", hour)))
		if len(row) == 6 {
			rows = append(rows, row)
			row = nil
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func MinuteKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for minute := 0; minute < 60; minute += 5 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%02d", minute), fmt.Sprintf("timem:%d", minute)))
		if len(row) == 6 {
			rows = append(rows, row)
			row = nil
		}
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Назад к часам", "timem:back"),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// LessonEditKeyboard lists up to 30 lessons for the rebooking flow.
func LessonEditKeyboard(lessons []models.Lesson, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, l := range lessons {
		if i == 30 {
			break
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✏️ %s %s", l.StudentName, l.StartAt.In(loc).Format("02.01 15:04")),
				fmt.Sprintf("edit_lesson:%d", l.ID),
			),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func DeleteAllConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да, удалить", "delete_all:confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Нет", "delete_all:cancel"),
		),
	)
}
