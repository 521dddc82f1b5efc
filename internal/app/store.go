package app

import (
	"context"
	"time"

	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/models"
)

// Reader is a consistent read view of storage.
type Reader interface {
	School(ctx context.Context, id int64) (*models.School, error)
	Schools(ctx context.Context) ([]models.School, error)
	Teacher(ctx context.Context, id int64) (*models.TeacherProfile, error)
	Teachers(ctx context.Context, schoolID int64, limit, offset int) ([]models.TeacherProfile, error)
	CountTeachers(ctx context.Context, schoolID int64) (int, error)
	JobType(ctx context.Context, id int64) (*models.JobType, error)
	JobTypes(ctx context.Context) ([]models.JobType, error)
	KPI(ctx context.Context, id int64) (*models.KPI, error)
	KPICandidates(ctx context.Context, jobTypeID, schoolID int64) ([]models.KPI, error)
	SchoolKPICandidates(ctx context.Context, schoolID int64) ([]models.KPI, error)
	EvidenceItem(ctx context.Context, id int64) (*models.EvidenceItem, error)
	EvidenceCandidates(ctx context.Context, kpiID, schoolID int64) ([]models.EvidenceItem, error)
	Submission(ctx context.Context, id int64) (*models.EvidenceSubmission, error)
	Submissions(ctx context.Context, teacherID, kpiID int64) ([]models.EvidenceSubmission, error)
	SubmissionsByTeachers(ctx context.Context, teacherIDs []int64) ([]models.EvidenceSubmission, error)
	SchoolSubmissions(ctx context.Context, schoolID int64, status models.SubmissionStatus, limit, offset int) ([]models.EvidenceSubmission, int, error)
}

type Store interface {
	// Read runs fn against one snapshot of the data.
	Read(ctx context.Context, fn func(r Reader) error) error

	CreateSubmission(ctx context.Context, s models.EvidenceSubmission) (*models.EvidenceSubmission, error)
	AcceptSubmission(ctx context.Context, id, reviewerID int64, rating int, at time.Time) (*models.EvidenceSubmission, error)
	RejectSubmission(ctx context.Context, id, reviewerID int64, reason string, at time.Time) (*models.EvidenceSubmission, error)
	CreateKPI(ctx context.Context, k models.KPI) (int64, error)
	UpdateKPI(ctx context.Context, id int64, p db.KPIPatch) error
}
