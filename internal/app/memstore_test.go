package app

import (
	"context"
	"sort"
	"time"

	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/models"
)

// memStore: хранилище в памяти для тестов сервиса; повторяет порядок и фильтры SQL.
type memStore struct {
	schools  []models.School
	jobTypes []models.JobType
	teachers []models.TeacherProfile
	kpis     []models.KPI
	evidence []models.EvidenceItem
	subs     []models.EvidenceSubmission

	readErr error
	nextID  int64
}

func (m *memStore) id() int64 {
	m.nextID++
	return 1000 + m.nextID
}

func (m *memStore) Read(ctx context.Context, fn func(r Reader) error) error {
	if m.readErr != nil {
		return m.readErr
	}
	return fn(memReader{m})
}

func (m *memStore) CreateSubmission(_ context.Context, s models.EvidenceSubmission) (*models.EvidenceSubmission, error) {
	s.ID = m.id()
	m.subs = append(m.subs, s)
	return &s, nil
}

func (m *memStore) review(id int64, fn func(*models.EvidenceSubmission)) (*models.EvidenceSubmission, error) {
	for i := range m.subs {
		if m.subs[i].ID != id {
			continue
		}
		if m.subs[i].Status != models.StatusPending {
			return nil, db.ErrAlreadyReviewed
		}
		fn(&m.subs[i])
		out := m.subs[i]
		return &out, nil
	}
	return nil, db.ErrNotFound
}

func (m *memStore) AcceptSubmission(_ context.Context, id, reviewerID int64, rating int, at time.Time) (*models.EvidenceSubmission, error) {
	return m.review(id, func(s *models.EvidenceSubmission) {
		s.Status = models.StatusAccepted
		s.Rating = &rating
		s.ReviewedBy = &reviewerID
		s.ReviewedAt = &at
	})
}

func (m *memStore) RejectSubmission(_ context.Context, id, reviewerID int64, reason string, at time.Time) (*models.EvidenceSubmission, error) {
	return m.review(id, func(s *models.EvidenceSubmission) {
		s.Status = models.StatusRejected
		s.RejectReason = &reason
		s.ReviewedBy = &reviewerID
		s.ReviewedAt = &at
	})
}

func (m *memStore) CreateKPI(_ context.Context, k models.KPI) (int64, error) {
	k.ID = m.id()
	m.kpis = append(m.kpis, k)
	return k.ID, nil
}

func (m *memStore) UpdateKPI(_ context.Context, id int64, p db.KPIPatch) error {
	for i := range m.kpis {
		k := &m.kpis[i]
		if k.ID != id {
			continue
		}
		if p.Name != nil {
			k.Name = *p.Name
		}
		if p.Weight != nil {
			k.Weight = *p.Weight
		}
		if p.ClearMinAccepted {
			k.MinAcceptedEvidence = nil
		} else if p.MinAcceptedEvidence != nil {
			v := *p.MinAcceptedEvidence
			k.MinAcceptedEvidence = &v
		}
		if p.IsActive != nil {
			k.IsActive = *p.IsActive
		}
		return nil
	}
	return db.ErrNotFound
}

type memReader struct{ m *memStore }

func (r memReader) School(_ context.Context, id int64) (*models.School, error) {
	for _, s := range r.m.schools {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) Schools(context.Context) ([]models.School, error) {
	var out []models.School
	for _, s := range r.m.schools {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memReader) Teacher(_ context.Context, id int64) (*models.TeacherProfile, error) {
	for _, t := range r.m.teachers {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) activeTeachers(schoolID int64) []models.TeacherProfile {
	var out []models.TeacherProfile
	for _, t := range r.m.teachers {
		if t.SchoolID == schoolID && t.IsActive {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memReader) Teachers(_ context.Context, schoolID int64, limit, offset int) ([]models.TeacherProfile, error) {
	out := r.activeTeachers(schoolID)
	if limit <= 0 {
		return out, nil
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r memReader) CountTeachers(_ context.Context, schoolID int64) (int, error) {
	return len(r.activeTeachers(schoolID)), nil
}

func (r memReader) JobType(_ context.Context, id int64) (*models.JobType, error) {
	for _, jt := range r.m.jobTypes {
		if jt.ID == id {
			return &jt, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) JobTypes(context.Context) ([]models.JobType, error) {
	var out []models.JobType
	for _, jt := range r.m.jobTypes {
		if jt.IsActive {
			out = append(out, jt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memReader) KPI(_ context.Context, id int64) (*models.KPI, error) {
	for _, k := range r.m.kpis {
		if k.ID == id {
			return &k, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) kpiCandidates(jobTypeID, schoolID int64) []models.KPI {
	var out []models.KPI
	for _, k := range r.m.kpis {
		if !k.IsActive || (jobTypeID != 0 && k.JobTypeID != jobTypeID) {
			continue
		}
		if (k.SchoolID == nil && k.IsOfficial) || (k.SchoolID != nil && *k.SchoolID == schoolID) {
			out = append(out, k)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memReader) KPICandidates(_ context.Context, jobTypeID, schoolID int64) ([]models.KPI, error) {
	return r.kpiCandidates(jobTypeID, schoolID), nil
}

func (r memReader) SchoolKPICandidates(_ context.Context, schoolID int64) ([]models.KPI, error) {
	return r.kpiCandidates(0, schoolID), nil
}

func (r memReader) EvidenceItem(_ context.Context, id int64) (*models.EvidenceItem, error) {
	for _, e := range r.m.evidence {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) EvidenceCandidates(_ context.Context, kpiID, schoolID int64) ([]models.EvidenceItem, error) {
	var out []models.EvidenceItem
	for _, e := range r.m.evidence {
		if !e.IsActive || e.KPIID != kpiID {
			continue
		}
		if (e.SchoolID == nil && e.IsOfficial) || (e.SchoolID != nil && *e.SchoolID == schoolID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memReader) Submission(_ context.Context, id int64) (*models.EvidenceSubmission, error) {
	for _, s := range r.m.subs {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memReader) Submissions(_ context.Context, teacherID, kpiID int64) ([]models.EvidenceSubmission, error) {
	var out []models.EvidenceSubmission
	for _, s := range r.m.subs {
		if s.TeacherID == teacherID && (kpiID == 0 || s.KPIID == kpiID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memReader) SubmissionsByTeachers(_ context.Context, teacherIDs []int64) ([]models.EvidenceSubmission, error) {
	want := make(map[int64]bool, len(teacherIDs))
	for _, id := range teacherIDs {
		want[id] = true
	}
	var out []models.EvidenceSubmission
	for _, s := range r.m.subs {
		if want[s.TeacherID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memReader) SchoolSubmissions(_ context.Context, schoolID int64, status models.SubmissionStatus, limit, offset int) ([]models.EvidenceSubmission, int, error) {
	inSchool := make(map[int64]bool)
	for _, t := range r.m.teachers {
		if t.SchoolID == schoolID {
			inSchool[t.ID] = true
		}
	}
	var all []models.EvidenceSubmission
	for _, s := range r.m.subs {
		if inSchool[s.TeacherID] && (status == "" || s.Status == status) {
			all = append(all, s)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}
