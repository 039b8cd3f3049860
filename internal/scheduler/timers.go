package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tutor-bot/internal/models"
)

// Payload addresses a timer by the lesson it belongs to and the reminder
// kind, plus the token minted when the timer was armed. The token lets
// OnFire tell a live timer from a superseded one.
type Payload struct {
	ChatID   int64
	LessonID int64
	Kind     models.TimerKind
	Token    uuid.UUID
}

type TimerID int64

// Timers is the minimal one-shot timer facility the scheduler needs.
// Fires are at-least-once: duplicates and late fires are filtered by the
// scheduler's token check.
type Timers interface {
	ScheduleAt(at time.Time, p Payload) TimerID
	Cancel(id TimerID)
}

// FireFunc receives the payload of a due timer.
type FireFunc func(p Payload)

// clockTimers implements Timers on time.AfterFunc.
type clockTimers struct {
	mu     sync.Mutex
	nextID TimerID
	active map[TimerID]*time.Timer
	fire   FireFunc
}

// NewTimers creates the wall-clock timer facility. Each fire runs on its
// own goroutine; serialization happens downstream in the controller.
func NewTimers(fire FireFunc) Timers {
	return &clockTimers{
		active: make(map[TimerID]*time.Timer),
		fire:   fire,
	}
}

func (ct *clockTimers) ScheduleAt(at time.Time, p Payload) TimerID {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.nextID++
	id := ct.nextID

	d := time.Until(at)
	if d < 0 {
		d = 0
	}

	ct.active[id] = time.AfterFunc(d, func() {
		ct.mu.Lock()
		delete(ct.active, id)
		ct.mu.Unlock()
		ct.fire(p)
	})

	return id
}

func (ct *clockTimers) Cancel(id TimerID) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if t, ok := ct.active[id]; ok {
		t.Stop()
		delete(ct.active, id)
	}
}
