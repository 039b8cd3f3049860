package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tutor-bot/internal/models"
)

// Chat operations

func (db *DB) UpsertChat(ctx context.Context, chatID int64, teacherName string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO chats (chat_id, teacher_name)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE
		SET teacher_name = EXCLUDED.teacher_name,
		    updated_at = CURRENT_TIMESTAMP
	`, chatID, teacherName)

	if err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}
	return nil
}

func (db *DB) ListChats(ctx context.Context) ([]models.Chat, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT chat_id, teacher_name, pending_msg_id, updated_at
		FROM chats
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var c models.Chat
		var pending sql.NullInt64
		if err := rows.Scan(&c.ChatID, &c.TeacherName, &pending, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if pending.Valid {
			c.PendingMsgID = &pending.Int64
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// SetPendingPrompt stores the "fill in the report" message id for the chat.
// Each chat has a single slot; a new prompt supersedes the old id.
func (db *DB) SetPendingPrompt(ctx context.Context, chatID int64, messageID int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE chats
		SET pending_msg_id = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE chat_id = $2
	`, messageID, chatID)

	return err
}

// TakePendingPrompt clears and returns the pending prompt message id,
// if one is open. Missing chat or empty slot is not an error.
func (db *DB) TakePendingPrompt(ctx context.Context, chatID int64) (int64, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var pending sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT pending_msg_id FROM chats WHERE chat_id = $1 FOR UPDATE
	`, chatID).Scan(&pending)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !pending.Valid {
		return 0, false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chats
		SET pending_msg_id = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE chat_id = $1
	`, chatID)
	if err != nil {
		return 0, false, err
	}

	return pending.Int64, true, tx.Commit()
}

// Lesson operations

func (db *DB) CreateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	var lesson models.Lesson

	err := db.QueryRowContext(ctx, `
		INSERT INTO lessons (chat_id, school, student_name, start_at, end_at, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, chat_id, school, student_name, start_at, end_at, state, created_at
	`, l.ChatID, l.School, l.StudentName, l.StartAt, l.EndAt, models.StateScheduled).Scan(
		&lesson.ID, &lesson.ChatID, &lesson.School, &lesson.StudentName,
		&lesson.StartAt, &lesson.EndAt, &lesson.State, &lesson.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return &lesson, nil
}

// UpdateLesson overwrites a booked lesson and resets its lifecycle to
// scheduled, so the caller can re-arm its timers from scratch.
func (db *DB) UpdateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	var lesson models.Lesson

	err := db.QueryRowContext(ctx, `
		UPDATE lessons
		SET school = $1, student_name = $2, start_at = $3, end_at = $4, state = $5
		WHERE chat_id = $6 AND id = $7
		RETURNING id, chat_id, school, student_name, start_at, end_at, state, created_at
	`, l.School, l.StudentName, l.StartAt, l.EndAt, models.StateScheduled, l.ChatID, l.ID).Scan(
		&lesson.ID, &lesson.ChatID, &lesson.School, &lesson.StudentName,
		&lesson.StartAt, &lesson.EndAt, &lesson.State, &lesson.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	return &lesson, nil
}

// GetLesson returns (nil, nil) when the lesson does not exist: an absent
// row is a benign outcome for the timer path, not an error.
func (db *DB) GetLesson(ctx context.Context, chatID, lessonID int64) (*models.Lesson, error) {
	var lesson models.Lesson

	err := db.QueryRowContext(ctx, `
		SELECT id, chat_id, school, student_name, start_at, end_at, state, created_at
		FROM lessons
		WHERE chat_id = $1 AND id = $2
	`, chatID, lessonID).Scan(
		&lesson.ID, &lesson.ChatID, &lesson.School, &lesson.StudentName,
		&lesson.StartAt, &lesson.EndAt, &lesson.State, &lesson.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &lesson, nil
}

func (db *DB) SetLessonState(ctx context.Context, chatID, lessonID int64, state models.LessonState) error {
	_, err := db.ExecContext(ctx, `
		UPDATE lessons
		SET state = $1
		WHERE chat_id = $2 AND id = $3
	`, state, chatID, lessonID)

	return err
}

func (db *DB) DeleteLesson(ctx context.Context, chatID, lessonID int64) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM lessons WHERE chat_id = $1 AND id = $2
	`, chatID, lessonID)

	return err
}

func (db *DB) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	return db.queryLessons(ctx, `
		SELECT id, chat_id, school, student_name, start_at, end_at, state, created_at
		FROM lessons
		ORDER BY start_at ASC
	`)
}

func (db *DB) ListLessonsForChat(ctx context.Context, chatID int64) ([]models.Lesson, error) {
	return db.queryLessons(ctx, `
		SELECT id, chat_id, school, student_name, start_at, end_at, state, created_at
		FROM lessons
		WHERE chat_id = $1
		ORDER BY start_at ASC
	`, chatID)
}

func (db *DB) ListLessonsBetween(ctx context.Context, chatID int64, from, to time.Time) ([]models.Lesson, error) {
	return db.queryLessons(ctx, `
		SELECT id, chat_id, school, student_name, start_at, end_at, state, created_at
		FROM lessons
		WHERE chat_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at ASC
	`, chatID, from, to)
}

func (db *DB) queryLessons(ctx context.Context, query string, args ...interface{}) ([]models.Lesson, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var l models.Lesson
		err := rows.Scan(
			&l.ID, &l.ChatID, &l.School, &l.StudentName,
			&l.StartAt, &l.EndAt, &l.State, &l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}

	return lessons, rows.Err()
}

// Report operations

func (db *DB) CreateReport(ctx context.Context, r *models.Report) (*models.Report, error) {
	var report models.Report

	err := db.QueryRowContext(ctx, `
		INSERT INTO reports (chat_id, full_name, school, payment_raw, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, chat_id, full_name, school, payment_raw, amount, created_at
	`, r.ChatID, r.FullName, r.School, r.PaymentRaw, r.Amount).Scan(
		&report.ID, &report.ChatID, &report.FullName, &report.School,
		&report.PaymentRaw, &report.Amount, &report.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return &report, nil
}

func (db *DB) ListReportsForChat(ctx context.Context, chatID int64, limit int) ([]models.Report, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, chat_id, full_name, school, payment_raw, amount, created_at
		FROM reports
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		err := rows.Scan(
			&r.ID, &r.ChatID, &r.FullName, &r.School,
			&r.PaymentRaw, &r.Amount, &r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

func (db *DB) TotalPayments(ctx context.Context, chatID int64) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM reports WHERE chat_id = $1
	`, chatID).Scan(&total)

	return total, err
}

func (db *DB) TotalsBySchool(ctx context.Context, chatID int64) (map[string]float64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT school, COALESCE(SUM(amount), 0)
		FROM reports
		WHERE chat_id = $1
		GROUP BY school
		ORDER BY school
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var school string
		var total float64
		if err := rows.Scan(&school, &total); err != nil {
			return nil, err
		}
		totals[school] = total
	}

	return totals, rows.Err()
}

// DeleteAllForChat wipes lessons, reports and the pending prompt slot
// for the chat in one transaction.
func (db *DB) DeleteAllForChat(ctx context.Context, chatID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, query := range []string{
		`DELETE FROM lessons WHERE chat_id = $1`,
		`DELETE FROM reports WHERE chat_id = $1`,
		`UPDATE chats SET pending_msg_id = NULL WHERE chat_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, query, chatID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete chat records: %w", err)
		}
	}

	return tx.Commit()
}
