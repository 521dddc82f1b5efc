package app

import (
	"context"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

// SchoolReport: оценки всех активных учителей школы и проверка весов по должностям.
type SchoolReport struct {
	School   models.School              `json:"school"`
	Teachers []scoring.TeacherScore     `json:"teachers"`
	Weights  []scoring.WeightValidation `json:"weights"`
}

// InvalidWeights returns the job types whose weights need attention.
func (r *SchoolReport) InvalidWeights() []scoring.WeightValidation {
	var out []scoring.WeightValidation
	for _, w := range r.Weights {
		if !w.IsValid {
			out = append(out, w)
		}
	}
	return out
}

// scoreTeachers scores the given teachers of one school against one KPI/submission
// snapshot. Teacher order is preserved.
func scoreTeachers(teachers []models.TeacherProfile, jobTypes map[int64]models.JobType, schoolID int64, cand []models.KPI, subs []models.EvidenceSubmission) []scoring.TeacherScore {
	byTeacher := make(map[int64][]models.EvidenceSubmission, len(teachers))
	for _, sb := range subs {
		byTeacher[sb.TeacherID] = append(byTeacher[sb.TeacherID], sb)
	}
	visible := make(map[int64][]models.KPI)

	out := make([]scoring.TeacherScore, 0, len(teachers))
	for _, t := range teachers {
		kpis, ok := visible[t.JobTypeID]
		if !ok {
			kpis = scoring.VisibleKPIs(cand, t.JobTypeID, schoolID)
			visible[t.JobTypeID] = kpis
		}
		jt, ok := jobTypes[t.JobTypeID]
		if !ok {
			jt = models.JobType{ID: t.JobTypeID}
		}
		overall, _ := scoring.ScoreTeacher(jt, kpis, byTeacher[t.ID])
		out = append(out, scoring.TeacherScore{
			TeacherID:   t.ID,
			TeacherName: t.Name,
			JobTypeID:   t.JobTypeID,
			Score:       overall,
		})
	}
	return out
}

func jobTypeIndex(jts []models.JobType) map[int64]models.JobType {
	m := make(map[int64]models.JobType, len(jts))
	for _, jt := range jts {
		m[jt.ID] = jt
	}
	return m
}

// weightsForTeachers validates every job type that has at least one active teacher in
// the school, in job type name order.
func weightsForTeachers(teachers []models.TeacherProfile, jts []models.JobType, schoolID int64, cand []models.KPI) []scoring.WeightValidation {
	used := make(map[int64]bool, len(jts))
	for _, t := range teachers {
		used[t.JobTypeID] = true
	}
	out := make([]scoring.WeightValidation, 0, len(used))
	for _, jt := range jts {
		if !used[jt.ID] {
			continue
		}
		out = append(out, scoring.ValidateWeights(jt, scoring.VisibleKPIs(cand, jt.ID, schoolID)))
	}
	return out
}

// SchoolReport scores every active teacher of the school from a single snapshot.
func (s *Service) SchoolReport(ctx context.Context, schoolID int64) (*SchoolReport, error) {
	ctx = ctxutil.WithOp(ctx, "school_report")
	var out *SchoolReport
	err := s.store.Read(ctx, func(r Reader) error {
		school, err := r.School(ctx, schoolID)
		if err != nil {
			return err
		}
		teachers, err := r.Teachers(ctx, schoolID, 0, 0)
		if err != nil {
			return err
		}
		jts, err := r.JobTypes(ctx)
		if err != nil {
			return err
		}
		cand, err := r.SchoolKPICandidates(ctx, schoolID)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(teachers))
		for _, t := range teachers {
			ids = append(ids, t.ID)
		}
		subs, err := r.SubmissionsByTeachers(ctx, ids)
		if err != nil {
			return err
		}
		out = &SchoolReport{
			School:   *school,
			Teachers: scoreTeachers(teachers, jobTypeIndex(jts), schoolID, cand, subs),
			Weights:  weightsForTeachers(teachers, jts, schoolID, cand),
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "school_report", err)
	}
	metrics.ObserveScore("school")
	return out, nil
}

// SchoolWeightWarnings lists job types of the school whose active KPI weights do not
// add up to 100. Job types without teachers in the school are not reported.
func (s *Service) SchoolWeightWarnings(ctx context.Context, schoolID int64) ([]scoring.WeightValidation, error) {
	ctx = ctxutil.WithOp(ctx, "weight_warnings")
	var out []scoring.WeightValidation
	err := s.store.Read(ctx, func(r Reader) error {
		if _, err := r.School(ctx, schoolID); err != nil {
			return err
		}
		teachers, err := r.Teachers(ctx, schoolID, 0, 0)
		if err != nil {
			return err
		}
		jts, err := r.JobTypes(ctx)
		if err != nil {
			return err
		}
		cand, err := r.SchoolKPICandidates(ctx, schoolID)
		if err != nil {
			return err
		}
		for _, w := range weightsForTeachers(teachers, jts, schoolID, cand) {
			if !w.IsValid {
				out = append(out, w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "weight_warnings", err)
	}
	if out == nil {
		out = []scoring.WeightValidation{}
	}
	return out, nil
}

// RankTeachers returns the top or bottom teachers of a school by overall score.
func (s *Service) RankTeachers(ctx context.Context, schoolID int64, order scoring.Order, limit int) ([]scoring.TeacherScore, error) {
	rep, err := s.SchoolReport(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return scoring.Rank(rep.Teachers, order, limit), nil
}

// ListTeachers returns one page of the school's teachers with their overall scores.
func (s *Service) ListTeachers(ctx context.Context, schoolID int64, req PageRequest) (Page[scoring.TeacherScore], error) {
	ctx = ctxutil.WithOp(ctx, "list_teachers")
	req = req.normalize()
	var out Page[scoring.TeacherScore]
	err := s.store.Read(ctx, func(r Reader) error {
		if _, err := r.School(ctx, schoolID); err != nil {
			return err
		}
		total, err := r.CountTeachers(ctx, schoolID)
		if err != nil {
			return err
		}
		teachers, err := r.Teachers(ctx, schoolID, req.PageSize, req.offset())
		if err != nil {
			return err
		}
		jts, err := r.JobTypes(ctx)
		if err != nil {
			return err
		}
		cand, err := r.SchoolKPICandidates(ctx, schoolID)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(teachers))
		for _, t := range teachers {
			ids = append(ids, t.ID)
		}
		subs, err := r.SubmissionsByTeachers(ctx, ids)
		if err != nil {
			return err
		}
		out = newPage(scoreTeachers(teachers, jobTypeIndex(jts), schoolID, cand, subs), req, total)
		return nil
	})
	if err != nil {
		return Page[scoring.TeacherScore]{}, s.fail(ctx, "list_teachers", err)
	}
	return out, nil
}

// AuditWeights validates every active school; used by the background audit job.
func (s *Service) AuditWeights(ctx context.Context) (map[int64][]scoring.WeightValidation, error) {
	ctx = ctxutil.WithOp(ctx, "weights_audit")
	out := make(map[int64][]scoring.WeightValidation)
	err := s.store.Read(ctx, func(r Reader) error {
		schools, err := r.Schools(ctx)
		if err != nil {
			return err
		}
		jts, err := r.JobTypes(ctx)
		if err != nil {
			return err
		}
		for _, sc := range schools {
			teachers, err := r.Teachers(ctx, sc.ID, 0, 0)
			if err != nil {
				return err
			}
			cand, err := r.SchoolKPICandidates(ctx, sc.ID)
			if err != nil {
				return err
			}
			out[sc.ID] = weightsForTeachers(teachers, jts, sc.ID, cand)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "weights_audit", err)
	}
	return out, nil
}
