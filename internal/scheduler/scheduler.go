package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutor-bot/internal/models"
)

// Store defines the storage operations the scheduler and the lifecycle
// controller need. *database.DB implements it.
type Store interface {
	CreateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	GetLesson(ctx context.Context, chatID, lessonID int64) (*models.Lesson, error)
	SetLessonState(ctx context.Context, chatID, lessonID int64, state models.LessonState) error
	DeleteLesson(ctx context.Context, chatID, lessonID int64) error
	ListLessons(ctx context.Context) ([]models.Lesson, error)
	ListLessonsBetween(ctx context.Context, chatID int64, from, to time.Time) ([]models.Lesson, error)
	CreateReport(ctx context.Context, r *models.Report) (*models.Report, error)
	TotalPayments(ctx context.Context, chatID int64) (float64, error)
	SetPendingPrompt(ctx context.Context, chatID int64, messageID int64) error
	TakePendingPrompt(ctx context.Context, chatID int64) (int64, bool, error)
	DeleteAllForChat(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]models.Chat, error)
}

// Notifier is the minimal messaging surface the lifecycle needs.
// internal/bot implements it.
type Notifier interface {
	Send(chatID int64, text string) (int64, error)
	SendTemporary(chatID int64, text string, ttl time.Duration) (int64, error)
	SendWithAction(chatID int64, text, actionLabel, actionData string) (int64, error)
	Delete(chatID int64, messageID int64) error
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

type timerKey struct {
	chatID   int64
	lessonID int64
	kind     models.TimerKind
}

type armedTimer struct {
	token uuid.UUID
	id    TimerID
}

// Scheduler owns the armed timer set. Timers are addressed by
// (chat, lesson, kind) so the recovery pass can re-derive the whole set
// from persisted lessons; the per-arm token guards against stale fires.
type Scheduler struct {
	mu     sync.Mutex
	timers Timers
	now    Clock
	log    *zap.Logger

	armed map[timerKey]armedTimer
	ctrl  *Controller
}

// New wires a scheduler and its lifecycle controller together.
func New(timers Timers, store Store, notifier Notifier, loc *time.Location, now Clock, log *zap.Logger) (*Scheduler, *Controller) {
	if now == nil {
		now = time.Now
	}
	s := &Scheduler{
		timers: timers,
		now:    now,
		log:    log,
		armed:  make(map[timerKey]armedTimer),
	}
	c := &Controller{
		store:       store,
		notifier:    notifier,
		sched:       s,
		loc:         loc,
		log:         log,
		reminderTTL: 10 * time.Minute,
	}
	s.ctrl = c
	return s, c
}

// kindsFor returns the timers still relevant to a lesson in the given
// state. Stages already notified never re-arm.
func kindsFor(state models.LessonState) []models.TimerKind {
	switch state {
	case models.StatePreStartNotified:
		return []models.TimerKind{models.TimerPreEnd, models.TimerPostEnd}
	case models.StatePreEndNotified:
		return []models.TimerKind{models.TimerPostEnd}
	default:
		return []models.TimerKind{models.TimerPreStart, models.TimerPreEnd, models.TimerPostEnd}
	}
}

// Arm registers the lesson's future fire instants. Instants already in
// the past are skipped, never fired retroactively. Re-arming first drops
// any timers the lesson already owns, so Arm is idempotent.
func (s *Scheduler) Arm(l *models.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(l.ChatID, l.ID)

	now := s.now()
	for _, kind := range kindsFor(l.State) {
		at := l.FireAt(kind)
		if !at.After(now) {
			continue
		}
		token := uuid.New()
		id := s.timers.ScheduleAt(at, Payload{
			ChatID:   l.ChatID,
			LessonID: l.ID,
			Kind:     kind,
			Token:    token,
		})
		s.armed[timerKey{l.ChatID, l.ID, kind}] = armedTimer{token: token, id: id}
	}
}

// Cancel drops all timers owned by the lesson. Safe on a lesson with
// nothing armed.
func (s *Scheduler) Cancel(chatID, lessonID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(chatID, lessonID)
}

// CancelChat drops every timer for every lesson of the chat (bulk delete).
func (s *Scheduler) CancelChat(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, armed := range s.armed {
		if key.chatID == chatID {
			s.timers.Cancel(armed.id)
			delete(s.armed, key)
		}
	}
}

func (s *Scheduler) cancelLocked(chatID, lessonID int64) {
	for _, kind := range []models.TimerKind{models.TimerPreStart, models.TimerPreEnd, models.TimerPostEnd} {
		key := timerKey{chatID, lessonID, kind}
		if armed, ok := s.armed[key]; ok {
			s.timers.Cancel(armed.id)
			delete(s.armed, key)
		}
	}
}

// OnFire is the single entry point for due timers. A payload whose token
// no longer matches the armed set is stale (lesson deleted, timer
// superseded, or a duplicate fire) and is dropped silently.
func (s *Scheduler) OnFire(p Payload) {
	key := timerKey{p.ChatID, p.LessonID, p.Kind}

	s.mu.Lock()
	armed, ok := s.armed[key]
	if !ok || armed.token != p.Token {
		s.mu.Unlock()
		s.log.Debug("stale timer fire dropped",
			zap.Int64("chat_id", p.ChatID),
			zap.Int64("lesson_id", p.LessonID),
			zap.String("kind", string(p.Kind)),
		)
		return
	}
	delete(s.armed, key)
	s.mu.Unlock()

	s.ctrl.handleFire(context.Background(), p.ChatID, p.LessonID, p.Kind)
}

// retryAfter re-arms a single kind whose fire could not complete because
// the store was unavailable. The fresh token supersedes the consumed one;
// a kind the lesson meanwhile re-armed through Arm is left alone.
func (s *Scheduler) retryAfter(chatID, lessonID int64, kind models.TimerKind, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := timerKey{chatID, lessonID, kind}
	if _, ok := s.armed[key]; ok {
		return
	}
	token := uuid.New()
	id := s.timers.ScheduleAt(s.now().Add(d), Payload{
		ChatID:   chatID,
		LessonID: lessonID,
		Kind:     kind,
		Token:    token,
	})
	s.armed[key] = armedTimer{token: token, id: id}
}

// armedCount reports how many timers the lesson currently owns (tests).
func (s *Scheduler) armedCount(chatID, lessonID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.armed {
		if key.chatID == chatID && key.lessonID == lessonID {
			n++
		}
	}
	return n
}
