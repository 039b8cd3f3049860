package models

import "time"

// Schools the operator can book a lesson at, in display order.
var Schools = []string{"Yarko", "Uknow", "Shabadoo"}

// LessonState is the persisted lifecycle stage of a lesson.
// A closed lesson has no row at all.
type LessonState string

const (
	StateScheduled        LessonState = "scheduled"
	StatePreStartNotified LessonState = "pre_start_notified"
	StatePreEndNotified   LessonState = "pre_end_notified"
)

// TimerKind identifies one of the three one-shot timers a lesson owns.
type TimerKind string

const (
	TimerPreStart TimerKind = "pre_start" // 30 minutes before start
	TimerPreEnd   TimerKind = "pre_end"   // 10 minutes before end
	TimerPostEnd  TimerKind = "post_end"  // 5 minutes after end
)

const (
	PreStartOffset = 30 * time.Minute
	PreEndOffset   = 10 * time.Minute
	PostEndOffset  = 5 * time.Minute
)

type Lesson struct {
	ID          int64       `db:"id"`
	ChatID      int64       `db:"chat_id"`
	School      string      `db:"school"`
	StudentName string      `db:"student_name"`
	StartAt     time.Time   `db:"start_at"`
	EndAt       time.Time   `db:"end_at"`
	State       LessonState `db:"state"`
	CreatedAt   time.Time   `db:"created_at"`
}

// FireAt returns the wall-clock instant the given timer kind fires for l.
func (l *Lesson) FireAt(kind TimerKind) time.Time {
	switch kind {
	case TimerPreStart:
		return l.StartAt.Add(-PreStartOffset)
	case TimerPreEnd:
		return l.EndAt.Add(-PreEndOffset)
	default:
		return l.EndAt.Add(PostEndOffset)
	}
}

// Report outlives its lesson: the lessons row is deleted when the
// report prompt goes out.
type Report struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	FullName   string    `db:"full_name"`
	School     string    `db:"school"`
	PaymentRaw string    `db:"payment_raw"`
	Amount     float64   `db:"amount"`
	CreatedAt  time.Time `db:"created_at"`
}

// UserState tracks where a user is inside a conversational form.
// In-memory only; an interrupted form simply restarts.
type UserState struct {
	UserID      int64
	State       string
	TempData    map[string]interface{}
	LastUpdated time.Time
}

// Chat is a registered operator chat. PendingMsgID holds the single
// "fill in the report" prompt slot for the chat, if one is open.
type Chat struct {
	ChatID       int64     `db:"chat_id"`
	TeacherName  string    `db:"teacher_name"`
	PendingMsgID *int64    `db:"pending_msg_id"`
	UpdatedAt    time.Time `db:"updated_at"`
}
