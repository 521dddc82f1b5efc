package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
)

const userColumns = `id, name, role, school_id, job_type_id, is_active, telegram_id`

func scanUser(s scanner) (models.User, error) {
	var (
		u        models.User
		schoolID sql.NullInt64
		jobType  sql.NullInt64
		tgID     sql.NullInt64
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Role, &schoolID, &jobType, &u.IsActive, &tgID); err != nil {
		return u, err
	}
	u.SchoolID = nullInt64Ptr(schoolID)
	u.JobTypeID = nullInt64Ptr(jobType)
	u.TelegramID = nullInt64Ptr(tgID)
	return u, nil
}

func CreateUser(ctx context.Context, q Querier, u models.User) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (name, role, school_id, job_type_id, is_active, telegram_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Name, string(u.Role), u.SchoolID, u.JobTypeID, u.IsActive, u.TelegramID).Scan(&id)
	return id, err
}

func GetUser(ctx context.Context, q Querier, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func GetUserByTelegramID(ctx context.Context, q Querier, telegramID int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetTeacher returns a user with role TEACHER; other roles are reported as ErrNotFound.
func GetTeacher(ctx context.Context, q Querier, id int64) (*models.TeacherProfile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var t models.TeacherProfile
	err := q.QueryRowContext(ctx, `
		SELECT id, name, school_id, job_type_id, is_active
		FROM users
		WHERE id = $1 AND role = 'TEACHER'
	`, id).Scan(&t.ID, &t.Name, &t.SchoolID, &t.JobTypeID, &t.IsActive)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTeachersBySchool: активные учителя школы, по имени. при limit <= 0 без ограничения.
func ListTeachersBySchool(ctx context.Context, q Querier, schoolID int64, limit, offset int) ([]models.TeacherProfile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, school_id, job_type_id, is_active
		FROM users
		WHERE school_id = $1 AND role = 'TEACHER' AND is_active = TRUE
		ORDER BY name, id`
	args := []any{schoolID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.TeacherProfile
	for rows.Next() {
		var t models.TeacherProfile
		if err := rows.Scan(&t.ID, &t.Name, &t.SchoolID, &t.JobTypeID, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func CountTeachersBySchool(ctx context.Context, q Querier, schoolID int64) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := q.QueryRowContext(ctx, `
		SELECT count(*) FROM users
		WHERE school_id = $1 AND role = 'TEACHER' AND is_active = TRUE
	`, schoolID).Scan(&n)
	return n, err
}

// ListManagersWithTelegram: директора школы, привязавшие Telegram.
func ListManagersWithTelegram(ctx context.Context, q Querier, schoolID int64) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE school_id = $1 AND role = 'SCHOOL_MANAGER' AND is_active = TRUE AND telegram_id IS NOT NULL
		ORDER BY id
	`, schoolID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
