package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tutor-bot/internal/models"
)

// Recover rebuilds the timer set from persisted lessons after a restart.
// Each lesson is re-armed according to its saved state, so stages already
// notified do not fire again. Lessons whose post-end instant has passed
// while the process was down are closed without a report prompt: the end
// time is stale and a late prompt would be noise. Lossy on purpose.
func (c *Controller) Recover(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lessons, err := c.store.ListLessons(ctx)
	if err != nil {
		return fmt.Errorf("failed to list lessons for recovery: %w", err)
	}

	now := c.sched.now()
	rearmed, closed := 0, 0
	for i := range lessons {
		l := lessons[i]
		if !l.FireAt(models.TimerPostEnd).After(now) {
			if err := c.store.DeleteLesson(ctx, l.ChatID, l.ID); err != nil {
				c.log.Error("failed to close overdue lesson",
					zap.Error(err), zap.Int64("chat_id", l.ChatID), zap.Int64("lesson_id", l.ID))
				continue
			}
			closed++
			continue
		}
		c.sched.Arm(&l)
		rearmed++
	}

	c.log.Info("recovery complete",
		zap.Int("lessons_rearmed", rearmed),
		zap.Int("overdue_closed", closed),
	)
	return nil
}
