package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tutor-bot/internal/models"
)

// RunDailySummary sends the morning digest at the given local wall-clock
// hour until ctx is canceled.
func (c *Controller) RunDailySummary(ctx context.Context, hour int) {
	for {
		now := c.sched.now().In(c.loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, c.loc)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			c.log.Info("morning summary job stopping")
			return
		case <-timer.C:
			c.SendMorningSummaries(ctx)
		}
	}
}

// SendMorningSummaries delivers the day's digest to every registered chat.
// Read-only over current lessons; no lifecycle transition happens here.
func (c *Controller) SendMorningSummaries(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chats, err := c.store.ListChats(ctx)
	if err != nil {
		c.log.Error("failed to list chats for morning summary", zap.Error(err))
		return
	}

	now := c.sched.now().In(c.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	for _, chat := range chats {
		lessons, err := c.store.ListLessonsBetween(ctx, chat.ChatID, dayStart, dayEnd)
		if err != nil {
			c.log.Error("failed to list day lessons", zap.Error(err), zap.Int64("chat_id", chat.ChatID))
			continue
		}

		text := MorningDigest(chat.TeacherName, lessons, c.loc)
		if _, err := c.notifier.Send(chat.ChatID, text); err != nil {
			c.log.Warn("morning summary not delivered", zap.Error(err), zap.Int64("chat_id", chat.ChatID))
		}
	}
}

// MorningDigest formats the day's lessons, ordered by start time.
func MorningDigest(teacherName string, lessons []models.Lesson, loc *time.Location) string {
	name := strings.TrimSpace(teacherName)
	if name == "" {
		name = "Анастасия"
	}
	if len(lessons) == 0 {
		return fmt.Sprintf("Доброе утро, %s. На сегодня у вас 0 уроков.", name)
	}

	ordered := make([]models.Lesson, len(lessons))
	copy(ordered, lessons)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartAt.Before(ordered[j].StartAt) })

	lines := []string{fmt.Sprintf("Доброе утро, %s. На сегодня у вас %d урока(ов):", name, len(lessons))}
	for _, l := range ordered {
		lines = append(lines, fmt.Sprintf(
			"- %s - %s | %s | %s",
			l.StartAt.In(loc).Format("15:04"), l.EndAt.In(loc).Format("15:04"),
			l.School, l.StudentName,
		))
	}
	return strings.Join(lines, "\n")
}
