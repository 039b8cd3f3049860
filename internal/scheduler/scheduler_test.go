package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tutor-bot/internal/models"
)

// fakeTimers records schedules instead of running them; tests fire
// payloads by hand through Scheduler.OnFire.
type fakeTimers struct {
	mu        sync.Mutex
	nextID    TimerID
	scheduled map[TimerID]Payload
	fireAt    map[TimerID]time.Time
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{
		scheduled: make(map[TimerID]Payload),
		fireAt:    make(map[TimerID]time.Time),
	}
}

func (ft *fakeTimers) ScheduleAt(at time.Time, p Payload) TimerID {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.nextID++
	ft.scheduled[ft.nextID] = p
	ft.fireAt[ft.nextID] = at
	return ft.nextID
}

func (ft *fakeTimers) Cancel(id TimerID) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	delete(ft.scheduled, id)
	delete(ft.fireAt, id)
}

func (ft *fakeTimers) payloadFor(kind models.TimerKind) (Payload, time.Time, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	for id, p := range ft.scheduled {
		if p.Kind == kind {
			return p, ft.fireAt[id], true
		}
	}
	return Payload{}, time.Time{}, false
}

func (ft *fakeTimers) count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.scheduled)
}

type lessonKey struct{ chatID, lessonID int64 }

// fakeStore is an in-memory Store. Setting getErr makes lesson lookups
// fail, simulating a storage outage.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	lessons map[lessonKey]models.Lesson
	reports []models.Report
	chats   map[int64]*models.Chat
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lessons: make(map[lessonKey]models.Lesson),
		chats:   make(map[int64]*models.Chat),
	}
}

func (fs *fakeStore) CreateLesson(_ context.Context, l *models.Lesson) (*models.Lesson, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nextID++
	stored := *l
	stored.ID = fs.nextID
	stored.State = models.StateScheduled
	fs.lessons[lessonKey{stored.ChatID, stored.ID}] = stored
	return &stored, nil
}

func (fs *fakeStore) UpdateLesson(_ context.Context, l *models.Lesson) (*models.Lesson, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := lessonKey{l.ChatID, l.ID}
	if _, ok := fs.lessons[key]; !ok {
		return nil, nil
	}
	stored := *l
	stored.State = models.StateScheduled
	fs.lessons[key] = stored
	return &stored, nil
}

func (fs *fakeStore) GetLesson(_ context.Context, chatID, lessonID int64) (*models.Lesson, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.getErr != nil {
		return nil, fs.getErr
	}
	if l, ok := fs.lessons[lessonKey{chatID, lessonID}]; ok {
		copied := l
		return &copied, nil
	}
	return nil, nil
}

func (fs *fakeStore) SetLessonState(_ context.Context, chatID, lessonID int64, state models.LessonState) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := lessonKey{chatID, lessonID}
	if l, ok := fs.lessons[key]; ok {
		l.State = state
		fs.lessons[key] = l
	}
	return nil
}

func (fs *fakeStore) DeleteLesson(_ context.Context, chatID, lessonID int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.lessons, lessonKey{chatID, lessonID})
	return nil
}

func (fs *fakeStore) ListLessons(_ context.Context) ([]models.Lesson, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Lesson
	for _, l := range fs.lessons {
		out = append(out, l)
	}
	return out, nil
}

func (fs *fakeStore) ListLessonsBetween(_ context.Context, chatID int64, from, to time.Time) ([]models.Lesson, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Lesson
	for _, l := range fs.lessons {
		if l.ChatID == chatID && !l.StartAt.Before(from) && l.StartAt.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (fs *fakeStore) CreateReport(_ context.Context, r *models.Report) (*models.Report, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	stored := *r
	stored.ID = int64(len(fs.reports) + 1)
	fs.reports = append(fs.reports, stored)
	return &stored, nil
}

func (fs *fakeStore) TotalPayments(_ context.Context, chatID int64) (float64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var total float64
	for _, r := range fs.reports {
		if r.ChatID == chatID {
			total += r.Amount
		}
	}
	return total, nil
}

func (fs *fakeStore) SetPendingPrompt(_ context.Context, chatID int64, messageID int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	chat := fs.chats[chatID]
	if chat == nil {
		chat = &models.Chat{ChatID: chatID}
		fs.chats[chatID] = chat
	}
	chat.PendingMsgID = &messageID
	return nil
}

func (fs *fakeStore) TakePendingPrompt(_ context.Context, chatID int64) (int64, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	chat := fs.chats[chatID]
	if chat == nil || chat.PendingMsgID == nil {
		return 0, false, nil
	}
	msgID := *chat.PendingMsgID
	chat.PendingMsgID = nil
	return msgID, true, nil
}

func (fs *fakeStore) DeleteAllForChat(_ context.Context, chatID int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for key := range fs.lessons {
		if key.chatID == chatID {
			delete(fs.lessons, key)
		}
	}
	var kept []models.Report
	for _, r := range fs.reports {
		if r.ChatID != chatID {
			kept = append(kept, r)
		}
	}
	fs.reports = kept
	if chat := fs.chats[chatID]; chat != nil {
		chat.PendingMsgID = nil
	}
	return nil
}

func (fs *fakeStore) ListChats(_ context.Context) ([]models.Chat, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.Chat
	for _, c := range fs.chats {
		out = append(out, *c)
	}
	return out, nil
}

type sentMessage struct {
	chatID int64
	text   string
	action string
}

// fakeNotifier records every send and delete.
type fakeNotifier struct {
	mu      sync.Mutex
	nextMsg int64
	sent    []sentMessage
	deleted []int64
}

func (fn *fakeNotifier) record(chatID int64, text, action string) (int64, error) {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.nextMsg++
	fn.sent = append(fn.sent, sentMessage{chatID: chatID, text: text, action: action})
	return fn.nextMsg, nil
}

func (fn *fakeNotifier) Send(chatID int64, text string) (int64, error) {
	return fn.record(chatID, text, "")
}

func (fn *fakeNotifier) SendTemporary(chatID int64, text string, _ time.Duration) (int64, error) {
	return fn.record(chatID, text, "")
}

func (fn *fakeNotifier) SendWithAction(chatID int64, text, _, actionData string) (int64, error) {
	return fn.record(chatID, text, actionData)
}

func (fn *fakeNotifier) Delete(_ int64, messageID int64) error {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.deleted = append(fn.deleted, messageID)
	return nil
}

func (fn *fakeNotifier) sentCount() int {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	return len(fn.sent)
}

type fixture struct {
	timers   *fakeTimers
	store    *fakeStore
	notifier *fakeNotifier
	sched    *Scheduler
	ctrl     *Controller
	now      time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		timers:   newFakeTimers(),
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
		now:      now,
	}
	f.sched, f.ctrl = New(f.timers, f.store, f.notifier, time.UTC, func() time.Time { return f.now }, zap.NewNop())
	return f
}

// fire delivers a payload the way the real facility would: a one-shot
// timer forgets its schedule entry when it runs.
func (f *fixture) fire(p Payload) {
	f.timers.mu.Lock()
	for id, sp := range f.timers.scheduled {
		if sp.Token == p.Token {
			delete(f.timers.scheduled, id)
			delete(f.timers.fireAt, id)
		}
	}
	f.timers.mu.Unlock()
	f.sched.OnFire(p)
}

func at(hh, mm int) time.Time {
	return time.Date(2026, time.September, 1, hh, mm, 0, 0, time.UTC)
}

func TestArmOrdersFireInstants(t *testing.T) {
	f := newFixture(t, at(12, 0))

	lesson, err := f.ctrl.Book(context.Background(), 10, "Yarko", "Маша", at(14, 0), at(15, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if f.timers.count() != 3 {
		t.Fatalf("expected 3 armed timers, got %d", f.timers.count())
	}

	_, preStart, _ := f.timers.payloadFor(models.TimerPreStart)
	_, preEnd, _ := f.timers.payloadFor(models.TimerPreEnd)
	_, postEnd, _ := f.timers.payloadFor(models.TimerPostEnd)

	if !preStart.Equal(at(13, 30)) || !preEnd.Equal(at(14, 50)) || !postEnd.Equal(at(15, 5)) {
		t.Fatalf("fire instants wrong: %v %v %v", preStart, preEnd, postEnd)
	}
	if preStart.After(preEnd) || !preEnd.Before(postEnd) {
		t.Fatalf("expected preStart <= preEnd < postEnd")
	}
	if f.sched.armedCount(10, lesson.ID) != 3 {
		t.Fatalf("lesson should own 3 timers")
	}
}

func TestArmSkipsPastInstants(t *testing.T) {
	f := newFixture(t, at(13, 45))

	// Pre-start instant (13:30) already past at arm time.
	lesson := &models.Lesson{ID: 1, ChatID: 10, State: models.StateScheduled, StartAt: at(14, 0), EndAt: at(15, 0)}
	f.sched.Arm(lesson)

	if f.timers.count() != 2 {
		t.Fatalf("expected 2 armed timers, got %d", f.timers.count())
	}
	if _, _, ok := f.timers.payloadFor(models.TimerPreStart); ok {
		t.Fatalf("pre-start must not be armed retroactively")
	}
}

func TestFullLifecycleScenario(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	lesson, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	p, _, ok := f.timers.payloadFor(models.TimerPreStart)
	if !ok {
		t.Fatalf("pre-start not armed")
	}
	f.now = at(13, 30)
	f.sched.OnFire(p)

	got, _ := f.store.GetLesson(ctx, 10, lesson.ID)
	if got.State != models.StatePreStartNotified {
		t.Fatalf("state after pre-start = %s", got.State)
	}
	if f.notifier.sentCount() != 1 || !strings.Contains(f.notifier.sent[0].text, "через 30 минут") {
		t.Fatalf("pre-start reminder not sent: %+v", f.notifier.sent)
	}

	p, _, ok = f.timers.payloadFor(models.TimerPreEnd)
	if !ok {
		t.Fatalf("pre-end not armed")
	}
	f.now = at(14, 50)
	f.sched.OnFire(p)

	got, _ = f.store.GetLesson(ctx, 10, lesson.ID)
	if got.State != models.StatePreEndNotified {
		t.Fatalf("state after pre-end = %s", got.State)
	}
	if !strings.Contains(f.notifier.sent[1].text, "подходит к концу") {
		t.Fatalf("pre-end reminder wrong: %q", f.notifier.sent[1].text)
	}

	p, _, ok = f.timers.payloadFor(models.TimerPostEnd)
	if !ok {
		t.Fatalf("post-end not armed")
	}
	f.now = at(15, 5)
	f.sched.OnFire(p)

	got, _ = f.store.GetLesson(ctx, 10, lesson.ID)
	if got != nil {
		t.Fatalf("lesson row must be deleted after post-end")
	}
	prompt := f.notifier.sent[2]
	if !strings.Contains(prompt.text, "Заполните отчет") {
		t.Fatalf("report prompt wrong: %q", prompt.text)
	}
	if prompt.action != fmt.Sprintf("open_report:%d", lesson.ID) {
		t.Fatalf("prompt action = %q", prompt.action)
	}
	if f.store.chats[10] == nil || f.store.chats[10].PendingMsgID == nil {
		t.Fatalf("pending prompt slot not stored")
	}
}

func TestDuplicateFireIsNoOp(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	if _, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	p, _, _ := f.timers.payloadFor(models.TimerPreStart)
	f.now = at(13, 30)
	f.sched.OnFire(p)
	f.sched.OnFire(p) // duplicate delivery

	if f.notifier.sentCount() != 1 {
		t.Fatalf("duplicate fire produced %d sends, want 1", f.notifier.sentCount())
	}
}

func TestDeleteCancelsAllTimers(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	lesson, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	preStart, _, _ := f.timers.payloadFor(models.TimerPreStart)
	f.now = at(13, 30)
	f.sched.OnFire(preStart)

	preEnd, _, _ := f.timers.payloadFor(models.TimerPreEnd)
	postEnd, _, _ := f.timers.payloadFor(models.TimerPostEnd)

	// Operator deletes between pre-start and pre-end.
	f.now = at(13, 45)
	if err := f.ctrl.Delete(ctx, 10, lesson.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.sched.armedCount(10, lesson.ID) != 0 {
		t.Fatalf("delete left timers armed")
	}

	// Late deliveries of the already-captured payloads must be dropped.
	before := f.notifier.sentCount()
	f.sched.OnFire(preEnd)
	f.sched.OnFire(postEnd)
	if f.notifier.sentCount() != before {
		t.Fatalf("stale fires after delete produced sends")
	}
}

func TestRebookSupersedesOldTimers(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	lesson, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	oldPreStart, _, _ := f.timers.payloadFor(models.TimerPreStart)

	if _, err := f.ctrl.Rebook(ctx, 10, lesson.ID, "Uknow", "Маша", at(16, 0), at(17, 0)); err != nil {
		t.Fatalf("Rebook: %v", err)
	}
	if f.timers.count() != 3 {
		t.Fatalf("rebook should leave exactly 3 timers, got %d", f.timers.count())
	}

	// The old payload's token is superseded.
	f.sched.OnFire(oldPreStart)
	if f.notifier.sentCount() != 0 {
		t.Fatalf("superseded payload fired a notification")
	}

	_, preStart, _ := f.timers.payloadFor(models.TimerPreStart)
	if !preStart.Equal(at(15, 30)) {
		t.Fatalf("new pre-start instant = %v, want 15:30", preStart)
	}
}

func TestRecoveryReArmsByState(t *testing.T) {
	f := newFixture(t, at(14, 55))
	ctx := context.Background()

	// Restart at 14:55 with a lesson still pre_start_notified, end 15:00.
	f.store.lessons[lessonKey{10, 1}] = models.Lesson{
		ID: 1, ChatID: 10, School: "Yarko", StudentName: "Маша",
		StartAt: at(14, 0), EndAt: at(15, 0), State: models.StatePreStartNotified,
	}

	if err := f.ctrl.Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	// Pre-end (14:50) already passed: only post-end (15:05) is re-armed.
	if f.timers.count() != 1 {
		t.Fatalf("expected 1 re-armed timer, got %d", f.timers.count())
	}
	p, fireAt, ok := f.timers.payloadFor(models.TimerPostEnd)
	if !ok || !fireAt.Equal(at(15, 5)) {
		t.Fatalf("post-end not re-armed for 15:05")
	}
	if p.Kind != models.TimerPostEnd {
		t.Fatalf("unexpected kind %s", p.Kind)
	}
	if f.notifier.sentCount() != 0 {
		t.Fatalf("recovery must not re-send notifications")
	}
}

func TestRecoveryClosesOverdueWithoutPrompt(t *testing.T) {
	f := newFixture(t, at(18, 0))
	ctx := context.Background()

	// Post-end instant (15:05) long past at restart.
	f.store.lessons[lessonKey{10, 1}] = models.Lesson{
		ID: 1, ChatID: 10, School: "Yarko", StudentName: "Маша",
		StartAt: at(14, 0), EndAt: at(15, 0), State: models.StatePreEndNotified,
	}

	if err := f.ctrl.Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if got, _ := f.store.GetLesson(ctx, 10, 1); got != nil {
		t.Fatalf("overdue lesson should be closed on recovery")
	}
	if f.timers.count() != 0 {
		t.Fatalf("overdue lesson must not re-arm timers")
	}
	if f.notifier.sentCount() != 0 {
		t.Fatalf("no late report prompt may be sent")
	}
}

func TestSubmitReportClearsPrompt(t *testing.T) {
	f := newFixture(t, at(15, 10))
	ctx := context.Background()

	msgID := int64(77)
	f.store.chats[10] = &models.Chat{ChatID: 10, PendingMsgID: &msgID}

	report, total, err := f.ctrl.SubmitReport(ctx, 10, "Маша Иванова", "Yarko", "2*350", 700)
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if report.Amount != 700 {
		t.Fatalf("amount = %v", report.Amount)
	}
	if total != 700 {
		t.Fatalf("total = %v", total)
	}
	if len(f.notifier.deleted) != 1 || f.notifier.deleted[0] != 77 {
		t.Fatalf("prompt message not deleted: %v", f.notifier.deleted)
	}
	if f.store.chats[10].PendingMsgID != nil {
		t.Fatalf("prompt slot not cleared")
	}

	// Aggregation across a second lesson of the same school.
	if _, total, err = f.ctrl.SubmitReport(ctx, 10, "Петя", "Yarko", "500", 500); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	if total != 1200 {
		t.Fatalf("grand total = %v, want 1200", total)
	}
}

func TestDeleteAllCancelsChatTimers(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	if _, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.ctrl.Book(ctx, 10, "Uknow", "Петя", at(16, 0), at(17, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.ctrl.Book(ctx, 20, "Yarko", "Оля", at(14, 0), at(15, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := f.ctrl.DeleteAll(ctx, 10); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	// Chat 10's six timers dropped; chat 20's three untouched.
	if f.timers.count() != 3 {
		t.Fatalf("expected 3 remaining timers, got %d", f.timers.count())
	}
	lessons, _ := f.store.ListLessons(ctx)
	if len(lessons) != 1 || lessons[0].ChatID != 20 {
		t.Fatalf("delete-all removed the wrong rows: %+v", lessons)
	}
}

func TestStorageOutageReArmsFiredTimer(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()

	lesson, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	p, _, _ := f.timers.payloadFor(models.TimerPostEnd)
	f.now = at(15, 5)
	f.store.getErr = fmt.Errorf("connection refused")
	f.fire(p)

	// The fire is consumed but the kind must stay armed for a retry.
	if f.notifier.sentCount() != 0 {
		t.Fatalf("outage fire produced sends")
	}
	retry, fireAt, ok := f.timers.payloadFor(models.TimerPostEnd)
	if !ok {
		t.Fatalf("post-end not re-armed after storage failure")
	}
	if retry.Token == p.Token {
		t.Fatalf("retry must carry a fresh token")
	}
	if !fireAt.After(at(15, 5)) {
		t.Fatalf("retry instant %v not in the future", fireAt)
	}

	// Store back up: the retried fire closes the lesson normally.
	f.store.getErr = nil
	f.now = fireAt
	f.fire(retry)

	if got, _ := f.store.GetLesson(ctx, 10, lesson.ID); got != nil {
		t.Fatalf("lesson still open after retried post-end")
	}
	if f.notifier.sentCount() != 1 || !strings.Contains(f.notifier.sent[0].text, "Заполните отчет") {
		t.Fatalf("report prompt missing after retry: %+v", f.notifier.sent)
	}
}

func TestSendMorningSummaries(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()

	f.store.chats[10] = &models.Chat{ChatID: 10, TeacherName: "Анастасия"}

	// Booked out of order; the digest must list them by start time.
	if _, err := f.ctrl.Book(ctx, 10, "Uknow", "Петя", at(16, 0), at(17, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.ctrl.Book(ctx, 10, "Yarko", "Маша", at(14, 0), at(15, 0)); err != nil {
		t.Fatalf("Book: %v", err)
	}
	// Tomorrow's lesson stays out of today's digest.
	tomorrow := at(14, 0).Add(24 * time.Hour)
	if _, err := f.ctrl.Book(ctx, 10, "Yarko", "Оля", tomorrow, tomorrow.Add(time.Hour)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	f.ctrl.SendMorningSummaries(ctx)

	if f.notifier.sentCount() != 1 {
		t.Fatalf("expected 1 digest, got %d", f.notifier.sentCount())
	}
	text := f.notifier.sent[0].text
	if !strings.Contains(text, "у вас 2 урока(ов)") {
		t.Fatalf("digest header wrong: %q", text)
	}
	if strings.Contains(text, "Оля") {
		t.Fatalf("digest includes tomorrow's lesson: %q", text)
	}
	first := strings.Index(text, "- 14:00 - 15:00 | Yarko | Маша")
	second := strings.Index(text, "- 16:00 - 17:00 | Uknow | Петя")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("digest lines unordered: %q", text)
	}
}

func TestMorningDigest(t *testing.T) {
	lessons := []models.Lesson{
		{School: "Yarko", StudentName: "Маша", StartAt: at(14, 0), EndAt: at(15, 0)},
		{School: "Uknow", StudentName: "Петя", StartAt: at(16, 0), EndAt: at(17, 0)},
	}

	text := MorningDigest("Анастасия", lessons, time.UTC)
	if !strings.Contains(text, "у вас 2 урока(ов)") {
		t.Fatalf("digest header wrong: %q", text)
	}
	if !strings.Contains(text, "- 14:00 - 15:00 | Yarko | Маша") {
		t.Fatalf("digest line missing: %q", text)
	}

	empty := MorningDigest("", nil, time.UTC)
	if !strings.Contains(empty, "0 уроков") {
		t.Fatalf("empty digest wrong: %q", empty)
	}
}
