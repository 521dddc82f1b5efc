package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
)

const submissionColumns = `id, teacher_id, kpi_id, evidence_id, file_url, description, status, rating, reject_reason, reviewed_by, reviewed_at, created_at`

func scanSubmission(s scanner) (models.EvidenceSubmission, error) {
	var (
		sub        models.EvidenceSubmission
		desc       sql.NullString
		rating     sql.NullInt64
		reason     sql.NullString
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
	)
	err := s.Scan(&sub.ID, &sub.TeacherID, &sub.KPIID, &sub.EvidenceID, &sub.FileURL, &desc,
		&sub.Status, &rating, &reason, &reviewedBy, &reviewedAt, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}
	sub.Description = nullStringPtr(desc)
	sub.Rating = nullIntPtr(rating)
	sub.RejectReason = nullStringPtr(reason)
	sub.ReviewedBy = nullInt64Ptr(reviewedBy)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}
	return sub, nil
}

// CreateSubmission сохраняет новую загрузку учителя в статусе PENDING.
// Повторная загрузка после отказа создаёт новую строку.
func CreateSubmission(ctx context.Context, q Querier, s models.EvidenceSubmission) (*models.EvidenceSubmission, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	out, err := scanSubmission(q.QueryRowContext(ctx, `
		INSERT INTO evidence_submissions (teacher_id, kpi_id, evidence_id, file_url, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
		RETURNING `+submissionColumns,
		s.TeacherID, s.KPIID, s.EvidenceID, s.FileURL, s.Description, s.CreatedAt))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func GetSubmission(ctx context.Context, q Querier, id int64) (*models.EvidenceSubmission, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	s, err := scanSubmission(q.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM evidence_submissions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListSubmissionsByTeacher: все загрузки учителя; при kpiID == 0 по всем KPI.
func ListSubmissionsByTeacher(ctx context.Context, q Querier, teacherID, kpiID int64) ([]models.EvidenceSubmission, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + submissionColumns + ` FROM evidence_submissions WHERE teacher_id = $1`
	args := []any{teacherID}
	if kpiID != 0 {
		query += ` AND kpi_id = $2`
		args = append(args, kpiID)
	}
	query += ` ORDER BY created_at, id`
	return querySubmissions(ctx, q, query, args...)
}

// ListSubmissionsByTeachers грузит загрузки сразу по пачке учителей (для рейтинга школы).
func ListSubmissionsByTeachers(ctx context.Context, q Querier, teacherIDs []int64) ([]models.EvidenceSubmission, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return querySubmissions(ctx, q, `
		SELECT `+submissionColumns+`
		FROM evidence_submissions
		WHERE teacher_id = ANY($1)
		ORDER BY teacher_id, created_at, id
	`, pq.Array(teacherIDs))
}

// ListSchoolSubmissions: очередь проверки школы; при пустом status все статусы.
func ListSchoolSubmissions(ctx context.Context, q Querier, schoolID int64, status models.SubmissionStatus, limit, offset int) ([]models.EvidenceSubmission, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	where := `u.school_id = $1`
	args := []any{schoolID}
	if status != "" {
		args = append(args, string(status))
		where += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}

	var total int
	if err := q.QueryRowContext(ctx, `
		SELECT count(*)
		FROM evidence_submissions s
		JOIN users u ON u.id = s.teacher_id
		WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	items, err := querySubmissions(ctx, q, fmt.Sprintf(`
		SELECT s.id, s.teacher_id, s.kpi_id, s.evidence_id, s.file_url, s.description, s.status,
		       s.rating, s.reject_reason, s.reviewed_by, s.reviewed_at, s.created_at
		FROM evidence_submissions s
		JOIN users u ON u.id = s.teacher_id
		WHERE %s
		ORDER BY s.created_at, s.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func querySubmissions(ctx context.Context, q Querier, query string, args ...any) ([]models.EvidenceSubmission, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.EvidenceSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AcceptSubmission: атомарный перевод PENDING → ACCEPTED с оценкой.
// Уже проверенная загрузка даёт ErrAlreadyReviewed.
func AcceptSubmission(ctx context.Context, q Querier, id, reviewerID int64, rating int, at time.Time) (*models.EvidenceSubmission, error) {
	return review(ctx, q, id, `
		UPDATE evidence_submissions
		SET status = 'ACCEPTED', rating = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+submissionColumns, rating, reviewerID, at)
}

// RejectSubmission: атомарный перевод PENDING → REJECTED с причиной.
func RejectSubmission(ctx context.Context, q Querier, id, reviewerID int64, reason string, at time.Time) (*models.EvidenceSubmission, error) {
	return review(ctx, q, id, `
		UPDATE evidence_submissions
		SET status = 'REJECTED', reject_reason = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+submissionColumns, reason, reviewerID, at)
}

func review(ctx context.Context, q Querier, id int64, query string, args ...any) (*models.EvidenceSubmission, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	s, err := scanSubmission(q.QueryRowContext(ctx, query, append([]any{id}, args...)...))
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	// строка не обновилась: либо её нет, либо она уже проверена
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM evidence_submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyReviewed
}
