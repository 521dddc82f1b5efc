package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/models"
)

type pgStore struct {
	db *sql.DB
}

// NewPGStore adapts the db package to Store.
func NewPGStore(database *sql.DB) Store {
	return pgStore{db: database}
}

func (s pgStore) Read(ctx context.Context, fn func(r Reader) error) error {
	return db.Snapshot(ctx, s.db, func(q db.Querier) error {
		return fn(pgReader{q: q})
	})
}

func (s pgStore) CreateSubmission(ctx context.Context, sub models.EvidenceSubmission) (*models.EvidenceSubmission, error) {
	return db.CreateSubmission(ctx, s.db, sub)
}

func (s pgStore) AcceptSubmission(ctx context.Context, id, reviewerID int64, rating int, at time.Time) (*models.EvidenceSubmission, error) {
	return db.AcceptSubmission(ctx, s.db, id, reviewerID, rating, at)
}

func (s pgStore) RejectSubmission(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*models.EvidenceSubmission, error) {
	return db.RejectSubmission(ctx, s.db, id, reviewerID, reason, at)
}

func (s pgStore) CreateKPI(ctx context.Context, k models.KPI) (int64, error) {
	return db.CreateKPI(ctx, s.db, k)
}

func (s pgStore) UpdateKPI(ctx context.Context, id int64, p db.KPIPatch) error {
	return db.UpdateKPI(ctx, s.db, id, p)
}

type pgReader struct {
	q db.Querier
}

func (r pgReader) School(ctx context.Context, id int64) (*models.School, error) {
	return db.GetSchool(ctx, r.q, id)
}

func (r pgReader) Schools(ctx context.Context) ([]models.School, error) {
	return db.ListSchools(ctx, r.q, false)
}

func (r pgReader) Teacher(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	return db.GetTeacher(ctx, r.q, id)
}

func (r pgReader) Teachers(ctx context.Context, schoolID int64, limit, offset int) ([]models.TeacherProfile, error) {
	return db.ListTeachersBySchool(ctx, r.q, schoolID, limit, offset)
}

func (r pgReader) CountTeachers(ctx context.Context, schoolID int64) (int, error) {
	return db.CountTeachersBySchool(ctx, r.q, schoolID)
}

func (r pgReader) JobType(ctx context.Context, id int64) (*models.JobType, error) {
	return db.GetJobType(ctx, r.q, id)
}

func (r pgReader) JobTypes(ctx context.Context) ([]models.JobType, error) {
	return db.ListJobTypes(ctx, r.q, false)
}

func (r pgReader) KPI(ctx context.Context, id int64) (*models.KPI, error) {
	return db.GetKPI(ctx, r.q, id)
}

func (r pgReader) KPICandidates(ctx context.Context, jobTypeID, schoolID int64) ([]models.KPI, error) {
	return db.ListKPICandidates(ctx, r.q, jobTypeID, schoolID)
}

func (r pgReader) SchoolKPICandidates(ctx context.Context, schoolID int64) ([]models.KPI, error) {
	return db.ListSchoolKPICandidates(ctx, r.q, schoolID)
}

func (r pgReader) EvidenceItem(ctx context.Context, id int64) (*models.EvidenceItem, error) {
	return db.GetEvidenceItem(ctx, r.q, id)
}

func (r pgReader) EvidenceCandidates(ctx context.Context, kpiID, schoolID int64) ([]models.EvidenceItem, error) {
	return db.ListEvidenceCandidates(ctx, r.q, kpiID, schoolID)
}

func (r pgReader) Submission(ctx context.Context, id int64) (*models.EvidenceSubmission, error) {
	return db.GetSubmission(ctx, r.q, id)
}

func (r pgReader) Submissions(ctx context.Context, teacherID, kpiID int64) ([]models.EvidenceSubmission, error) {
	return db.ListSubmissionsByTeacher(ctx, r.q, teacherID, kpiID)
}

func (r pgReader) SubmissionsByTeachers(ctx context.Context, teacherIDs []int64) ([]models.EvidenceSubmission, error) {
	return db.ListSubmissionsByTeachers(ctx, r.q, teacherIDs)
}

func (r pgReader) SchoolSubmissions(ctx context.Context, schoolID int64, status models.SubmissionStatus, limit, offset int) ([]models.EvidenceSubmission, int, error) {
	return db.ListSchoolSubmissions(ctx, r.q, schoolID, status, limit, offset)
}
