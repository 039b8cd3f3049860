package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tutor-bot/internal/models"
)

var weekdaysRu = []string{
	"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье",
}

// GroupedLessonsText formats lessons grouped by day, then by school in the
// fixed school order, each line "student HH:MM - HH:MM".
func GroupedLessonsText(lessons []models.Lesson, loc *time.Location) string {
	if len(lessons) == 0 {
		return "Уроки: нет записей"
	}

	type dayKey struct {
		year  int
		month time.Month
		day   int
	}
	grouped := make(map[dayKey]map[string][]models.Lesson)
	var days []dayKey

	for _, l := range lessons {
		start := l.StartAt.In(loc)
		key := dayKey{start.Year(), start.Month(), start.Day()}
		if grouped[key] == nil {
			grouped[key] = make(map[string][]models.Lesson)
			days = append(days, key)
		}
		grouped[key][l.School] = append(grouped[key][l.School], l)
	}

	sort.Slice(days, func(i, j int) bool {
		a, b := days[i], days[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		return a.day < b.day
	})

	var lines []string
	for _, key := range days {
		date := time.Date(key.year, key.month, key.day, 0, 0, 0, 0, loc)
		weekday := weekdaysRu[(int(date.Weekday())+6)%7]
		lines = append(lines, fmt.Sprintf("%d, %s", key.day, weekday), "")

		daySchools := grouped[key]
		for _, school := range schoolOrder(daySchools) {
			lines = append(lines, school)
			schoolLessons := daySchools[school]
			sort.Slice(schoolLessons, func(i, j int) bool {
				return schoolLessons[i].StartAt.Before(schoolLessons[j].StartAt)
			})
			for _, l := range schoolLessons {
				lines = append(lines, fmt.Sprintf(
					"%s %s - %s",
					l.StudentName,
					l.StartAt.In(loc).Format("15:04"),
					l.EndAt.In(loc).Format("15:04"),
				))
			}
			lines = append(lines, "")
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// schoolOrder lists the day's schools: the fixed set first, anything
// unexpected appended alphabetically.
func schoolOrder(daySchools map[string][]models.Lesson) []string {
	var order []string
	seen := make(map[string]bool)
	for _, school := range models.Schools {
		if _, ok := daySchools[school]; ok {
			order = append(order, school)
			seen[school] = true
		}
	}
	var rest []string
	for school := range daySchools {
		if !seen[school] {
			rest = append(rest, school)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
