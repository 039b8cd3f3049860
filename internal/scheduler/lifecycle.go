package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tutor-bot/internal/models"
)

// How long a fire waits for another attempt when the store was unreachable.
const transitionRetryDelay = 30 * time.Second

// Controller reacts to timer fires and operator events by mutating lesson
// state. Every entry point takes c.mu, so lesson transitions, deletions and
// report submissions form a single serialized timeline; a notifier failure
// is logged but never blocks a transition from committing.
type Controller struct {
	mu          sync.Mutex
	store       Store
	notifier    Notifier
	sched       *Scheduler
	loc         *time.Location
	log         *zap.Logger
	reminderTTL time.Duration
}

// Book persists a new lesson and arms its reminder timers.
func (c *Controller) Book(ctx context.Context, chatID int64, school, student string, startAt, endAt time.Time) (*models.Lesson, error) {
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("lesson end %s not after start %s", endAt, startAt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lesson, err := c.store.CreateLesson(ctx, &models.Lesson{
		ChatID:      chatID,
		School:      school,
		StudentName: student,
		StartAt:     startAt,
		EndAt:       endAt,
	})
	if err != nil {
		return nil, err
	}

	c.sched.Arm(lesson)
	c.log.Info("lesson booked",
		zap.Int64("chat_id", chatID),
		zap.Int64("lesson_id", lesson.ID),
		zap.String("school", school),
		zap.Time("start_at", startAt),
	)
	return lesson, nil
}

// Rebook overwrites an existing lesson, resets it to scheduled and re-arms
// its timers. Returns (nil, nil) when the lesson no longer exists.
func (c *Controller) Rebook(ctx context.Context, chatID, lessonID int64, school, student string, startAt, endAt time.Time) (*models.Lesson, error) {
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("lesson end %s not after start %s", endAt, startAt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lesson, err := c.store.UpdateLesson(ctx, &models.Lesson{
		ID:          lessonID,
		ChatID:      chatID,
		School:      school,
		StudentName: student,
		StartAt:     startAt,
		EndAt:       endAt,
	})
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		c.sched.Cancel(chatID, lessonID)
		return nil, nil
	}

	c.sched.Arm(lesson)
	c.log.Info("lesson rebooked", zap.Int64("chat_id", chatID), zap.Int64("lesson_id", lessonID))
	return lesson, nil
}

// handleFire performs one lifecycle transition. Preconditions that fail
// (lesson gone, state already past the stage) make the fire a no-op: timer
// facilities may fire late or more than once.
func (c *Controller) handleFire(ctx context.Context, chatID, lessonID int64, kind models.TimerKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lesson, err := c.store.GetLesson(ctx, chatID, lessonID)
	if err != nil {
		c.sched.retryAfter(chatID, lessonID, kind, transitionRetryDelay)
		c.log.Error("lesson lookup failed, transition postponed",
			zap.Error(err), zap.Int64("chat_id", chatID), zap.Int64("lesson_id", lessonID))
		return
	}
	if lesson == nil {
		return
	}

	switch kind {
	case models.TimerPreStart:
		c.firePreStart(ctx, lesson)
	case models.TimerPreEnd:
		c.firePreEnd(ctx, lesson)
	case models.TimerPostEnd:
		c.firePostEnd(ctx, lesson)
	}
}

func (c *Controller) firePreStart(ctx context.Context, l *models.Lesson) {
	if l.State != models.StateScheduled {
		return
	}

	text := fmt.Sprintf(
		"Напоминание: урок через 30 минут.\n\nШкола: %s\nИмя ученика: %s\nУрок: с %s до %s\nДата: %s",
		l.School, l.StudentName,
		l.StartAt.In(c.loc).Format("15:04"), l.EndAt.In(c.loc).Format("15:04"),
		l.StartAt.In(c.loc).Format("02.01.2006"),
	)
	if _, err := c.notifier.SendTemporary(l.ChatID, text, c.reminderTTL); err != nil {
		c.log.Warn("pre-start reminder not delivered",
			zap.Error(err), zap.Int64("chat_id", l.ChatID), zap.Int64("lesson_id", l.ID))
	}

	if err := c.store.SetLessonState(ctx, l.ChatID, l.ID, models.StatePreStartNotified); err != nil {
		c.log.Error("failed to persist pre-start transition", zap.Error(err), zap.Int64("lesson_id", l.ID))
	}
}

func (c *Controller) firePreEnd(ctx context.Context, l *models.Lesson) {
	if l.State != models.StateScheduled && l.State != models.StatePreStartNotified {
		return
	}

	text := fmt.Sprintf("%s, урок подходит к концу. Осталось 10 минут.", l.StudentName)
	if _, err := c.notifier.SendTemporary(l.ChatID, text, c.reminderTTL); err != nil {
		c.log.Warn("pre-end reminder not delivered",
			zap.Error(err), zap.Int64("chat_id", l.ChatID), zap.Int64("lesson_id", l.ID))
	}

	if err := c.store.SetLessonState(ctx, l.ChatID, l.ID, models.StatePreEndNotified); err != nil {
		c.log.Error("failed to persist pre-end transition", zap.Error(err), zap.Int64("lesson_id", l.ID))
	}
}

// firePostEnd closes the lesson: the row is deleted first, then the report
// prompt goes out and its message id takes the chat's single prompt slot.
func (c *Controller) firePostEnd(ctx context.Context, l *models.Lesson) {
	c.sched.Cancel(l.ChatID, l.ID)

	if err := c.store.DeleteLesson(ctx, l.ChatID, l.ID); err != nil {
		c.log.Error("failed to close lesson", zap.Error(err), zap.Int64("lesson_id", l.ID))
		return
	}

	c.clearPendingPrompt(ctx, l.ChatID)

	text := fmt.Sprintf(
		"Заполните отчет\nУрок завершен: %s\nШкола: %s\nВремя: %s - %s",
		l.StudentName, l.School,
		l.StartAt.In(c.loc).Format("15:04"), l.EndAt.In(c.loc).Format("15:04"),
	)
	msgID, err := c.notifier.SendWithAction(l.ChatID, text, "Заполнить отчет", fmt.Sprintf("open_report:%d", l.ID))
	if err != nil {
		c.log.Warn("report prompt not delivered", zap.Error(err), zap.Int64("chat_id", l.ChatID))
		return
	}
	if err := c.store.SetPendingPrompt(ctx, l.ChatID, msgID); err != nil {
		c.log.Error("failed to store report prompt handle", zap.Error(err), zap.Int64("chat_id", l.ChatID))
	}
}

// Delete removes a lesson on operator request. Timers are cancelled before
// the row goes away, so a late fire cannot resurrect the lesson's side
// effects.
func (c *Controller) Delete(ctx context.Context, chatID, lessonID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sched.Cancel(chatID, lessonID)
	if err := c.store.DeleteLesson(ctx, chatID, lessonID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	c.clearPendingPrompt(ctx, chatID)

	c.log.Info("lesson deleted", zap.Int64("chat_id", chatID), zap.Int64("lesson_id", lessonID))
	return nil
}

// DeleteAll wipes every lesson, report and prompt for the chat.
func (c *Controller) DeleteAll(ctx context.Context, chatID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sched.CancelChat(chatID)
	c.clearPendingPrompt(ctx, chatID)
	if err := c.store.DeleteAllForChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete chat records: %w", err)
	}

	c.log.Info("all records deleted", zap.Int64("chat_id", chatID))
	return nil
}

// SubmitReport stores a completed report and removes the chat's open
// report prompt. Returns the stored report and the new grand total.
func (c *Controller) SubmitReport(ctx context.Context, chatID int64, fullName, school, paymentRaw string, amount float64) (*models.Report, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.store.CreateReport(ctx, &models.Report{
		ChatID:     chatID,
		FullName:   fullName,
		School:     school,
		PaymentRaw: paymentRaw,
		Amount:     amount,
	})
	if err != nil {
		return nil, 0, err
	}

	c.clearPendingPrompt(ctx, chatID)

	total, err := c.store.TotalPayments(ctx, chatID)
	if err != nil {
		c.log.Warn("total payments unavailable", zap.Error(err), zap.Int64("chat_id", chatID))
	}

	c.log.Info("report saved",
		zap.Int64("chat_id", chatID),
		zap.String("school", school),
		zap.Float64("amount", amount),
	)
	return report, total, nil
}

// clearPendingPrompt takes the chat's prompt slot and deletes the message
// it points at, if any. Callers hold c.mu.
func (c *Controller) clearPendingPrompt(ctx context.Context, chatID int64) {
	msgID, ok, err := c.store.TakePendingPrompt(ctx, chatID)
	if err != nil {
		c.log.Warn("pending prompt lookup failed", zap.Error(err), zap.Int64("chat_id", chatID))
		return
	}
	if !ok {
		return
	}
	if err := c.notifier.Delete(chatID, msgID); err != nil {
		c.log.Warn("failed to delete report prompt message",
			zap.Error(err), zap.Int64("chat_id", chatID), zap.Int64("message_id", msgID))
	}
}
