package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/observability"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

// Service reads a snapshot of rows per call and recomputes everything; it keeps no
// state between calls.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	err = storageErr(op, err)
	if err != nil && isUnavailable(err) {
		logging.FromContext(ctx, s.log).Error("storage failure", zap.String("op", op), zap.Error(err))
		observability.CaptureErrCtx(ctx, err)
	}
	return err
}

// WeightValidation sums the active KPI weights of jobTypeID visible to schoolID.
func (s *Service) WeightValidation(ctx context.Context, jobTypeID, schoolID int64) (scoring.WeightValidation, error) {
	ctx = ctxutil.WithOp(ctx, "weight_validation")
	var out scoring.WeightValidation
	err := s.store.Read(ctx, func(r Reader) error {
		if _, err := r.School(ctx, schoolID); err != nil {
			return err
		}
		jt, err := r.JobType(ctx, jobTypeID)
		if err != nil {
			return err
		}
		kpis, err := r.KPICandidates(ctx, jobTypeID, schoolID)
		if err != nil {
			return err
		}
		out = scoring.ValidateWeights(*jt, scoring.VisibleKPIs(kpis, jobTypeID, schoolID))
		return nil
	})
	if err != nil {
		return scoring.WeightValidation{}, s.fail(ctx, "weight_validation", err)
	}
	metrics.ObserveScore("weights")
	return out, nil
}

// teacherView is everything needed to score one teacher.
type teacherView struct {
	teacher models.TeacherProfile
	jobType models.JobType
	kpis    []models.KPI
	subs    []models.EvidenceSubmission
}

func loadTeacher(ctx context.Context, r Reader, teacherID, kpiID int64) (*teacherView, error) {
	t, err := r.Teacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	jt, err := r.JobType(ctx, t.JobTypeID)
	if err != nil {
		return nil, err
	}
	cand, err := r.KPICandidates(ctx, t.JobTypeID, t.SchoolID)
	if err != nil {
		return nil, err
	}
	subs, err := r.Submissions(ctx, teacherID, kpiID)
	if err != nil {
		return nil, err
	}
	return &teacherView{
		teacher: *t,
		jobType: *jt,
		kpis:    scoring.VisibleKPIs(cand, t.JobTypeID, t.SchoolID),
		subs:    subs,
	}, nil
}

func (v *teacherView) kpi(id int64) (models.KPI, error) {
	for _, k := range v.kpis {
		if k.ID == id {
			return k, nil
		}
	}
	return models.KPI{}, fmt.Errorf("kpi %d for teacher %d: %w", id, v.teacher.ID, ErrNotFound)
}

// KPIScore scores one KPI of a teacher. The KPI must be visible to the teacher's
// school and job type.
func (s *Service) KPIScore(ctx context.Context, teacherID, kpiID int64) (scoring.KPIScore, error) {
	ctx = ctxutil.WithOp(ctx, "kpi_score")
	var out scoring.KPIScore
	err := s.store.Read(ctx, func(r Reader) error {
		v, err := loadTeacher(ctx, r, teacherID, kpiID)
		if err != nil {
			return err
		}
		k, err := v.kpi(kpiID)
		if err != nil {
			return err
		}
		out = scoring.ScoreKPI(k, v.subs)
		return nil
	})
	if err != nil {
		return scoring.KPIScore{}, s.fail(ctx, "kpi_score", err)
	}
	metrics.ObserveScore("kpi")
	return out, nil
}

// TeacherOverallScore is the weighted overall score with the job type's weight check.
func (s *Service) TeacherOverallScore(ctx context.Context, teacherID int64) (scoring.OverallScore, error) {
	ctx = ctxutil.WithOp(ctx, "teacher_score")
	var out scoring.OverallScore
	err := s.store.Read(ctx, func(r Reader) error {
		v, err := loadTeacher(ctx, r, teacherID, 0)
		if err != nil {
			return err
		}
		out, _ = scoring.ScoreTeacher(v.jobType, v.kpis, v.subs)
		return nil
	})
	if err != nil {
		return scoring.OverallScore{}, s.fail(ctx, "teacher_score", err)
	}
	metrics.ObserveScore("teacher")
	return out, nil
}

// KPIProgress reports how many more accepted submissions the teacher needs for a KPI.
func (s *Service) KPIProgress(ctx context.Context, teacherID, kpiID int64) (scoring.Progress, error) {
	ctx = ctxutil.WithOp(ctx, "kpi_progress")
	var out scoring.Progress
	err := s.store.Read(ctx, func(r Reader) error {
		v, err := loadTeacher(ctx, r, teacherID, kpiID)
		if err != nil {
			return err
		}
		k, err := v.kpi(kpiID)
		if err != nil {
			return err
		}
		sc := scoring.ScoreKPI(k, v.subs)
		out = scoring.KPIProgress(k.ID, k.MinAcceptedEvidence, sc.ApprovedEvidenceCount)
		return nil
	})
	if err != nil {
		return scoring.Progress{}, s.fail(ctx, "kpi_progress", err)
	}
	metrics.ObserveScore("progress")
	return out, nil
}

type KPIRow struct {
	scoring.KPIScore
	MinAcceptedEvidence *int             `json:"minAcceptedEvidence"`
	Progress            scoring.Progress `json:"progress"`
}

type Dashboard struct {
	Teacher models.TeacherProfile `json:"teacher"`
	JobType models.JobType        `json:"jobType"`
	Overall scoring.OverallScore  `json:"overall"`
	KPIs    []KPIRow              `json:"kpis"`
}

// TeacherDashboard собирает всё для страницы учителя за одно чтение.
func (s *Service) TeacherDashboard(ctx context.Context, teacherID int64) (*Dashboard, error) {
	ctx = ctxutil.WithOp(ctx, "teacher_dashboard")
	var out *Dashboard
	err := s.store.Read(ctx, func(r Reader) error {
		v, err := loadTeacher(ctx, r, teacherID, 0)
		if err != nil {
			return err
		}
		overall, _ := scoring.ScoreTeacher(v.jobType, v.kpis, v.subs)
		rows := make([]KPIRow, 0, len(v.kpis))
		for _, k := range v.kpis {
			sc := scoring.ScoreKPI(k, v.subs)
			rows = append(rows, KPIRow{
				KPIScore:            sc,
				MinAcceptedEvidence: k.MinAcceptedEvidence,
				Progress:            scoring.KPIProgress(k.ID, k.MinAcceptedEvidence, sc.ApprovedEvidenceCount),
			})
		}
		out = &Dashboard{Teacher: v.teacher, JobType: v.jobType, Overall: overall, KPIs: rows}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "teacher_dashboard", err)
	}
	metrics.ObserveScore("dashboard")
	return out, nil
}
