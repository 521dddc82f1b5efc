package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

func ptrInt(v int) *int       { return &v }
func ptrInt64(v int64) *int64 { return &v }
func ptrStr(v string) *string { return &v }

func accepted(id, teacher, kpi int64, rating int) models.EvidenceSubmission {
	return models.EvidenceSubmission{ID: id, TeacherID: teacher, KPIID: kpi, EvidenceID: 100,
		FileURL: "https://files.example/x.pdf", Status: models.StatusAccepted, Rating: ptrInt(rating)}
}

// fixture: в школе 1 три учителя (двое «Учитель», одна «Психолог» с неполными весами),
// в школе 2 один учитель и школьный KPI, заменяющий официальный «Олимпиады».
func fixture() *memStore {
	return &memStore{
		schools: []models.School{
			{ID: 1, Name: "Школа №1", IsActive: true},
			{ID: 2, Name: "Школа №2", IsActive: true},
		},
		jobTypes: []models.JobType{
			{ID: 1, Name: "Учитель", IsActive: true},
			{ID: 2, Name: "Психолог", IsActive: true},
		},
		teachers: []models.TeacherProfile{
			{ID: 10, Name: "Петров", SchoolID: 1, JobTypeID: 1, IsActive: true},
			{ID: 11, Name: "Абрамова", SchoolID: 1, JobTypeID: 1, IsActive: true},
			{ID: 12, Name: "Сидоров", SchoolID: 2, JobTypeID: 1, IsActive: true},
			{ID: 13, Name: "Иванова", SchoolID: 1, JobTypeID: 2, IsActive: true},
		},
		kpis: []models.KPI{
			{ID: 1, JobTypeID: 1, Name: "Уроки", Weight: 60, IsOfficial: true, IsActive: true},
			{ID: 2, JobTypeID: 1, Name: "Олимпиады", Weight: 40, MinAcceptedEvidence: ptrInt(2), IsOfficial: true, IsActive: true},
			{ID: 3, JobTypeID: 2, Name: "Консультации", Weight: 50, IsOfficial: true, IsActive: true},
			{ID: 4, JobTypeID: 1, Name: "Олимпиады (школа 2)", Weight: 40, SchoolID: ptrInt64(2), OverridesKPIID: ptrInt64(2), IsActive: true},
		},
		evidence: []models.EvidenceItem{
			{ID: 100, KPIID: 1, Name: "Открытый урок", IsOfficial: true, IsActive: true},
			{ID: 101, KPIID: 2, Name: "Диплом", IsOfficial: true, IsActive: true},
			{ID: 102, KPIID: 4, Name: "Диплом школы", SchoolID: ptrInt64(2), IsActive: true},
			{ID: 103, KPIID: 1, Name: "Открытый урок (школа 2)", SchoolID: ptrInt64(2), OverridesEvidenceID: ptrInt64(100), IsActive: true},
		},
		subs: []models.EvidenceSubmission{
			accepted(1, 10, 1, 3),
			accepted(2, 10, 1, 5),
			{ID: 3, TeacherID: 10, KPIID: 1, EvidenceID: 100, FileURL: "https://files.example/p.pdf", Status: models.StatusPending},
			accepted(4, 10, 2, 3),
			{ID: 5, TeacherID: 10, KPIID: 2, EvidenceID: 101, FileURL: "https://files.example/r.pdf", Status: models.StatusRejected, RejectReason: ptrStr("нечитаемо")},
			accepted(6, 11, 1, 5),
			accepted(7, 11, 2, 5),
			accepted(8, 13, 3, 4),
		},
	}
}

func newTestService(m *memStore) *Service {
	s := NewService(m, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func as(role models.Role, userID int64, school *int64) context.Context {
	return ctxutil.WithPrincipal(context.Background(), ctxutil.Principal{UserID: userID, Role: role, SchoolID: school})
}

func isValidation(err error, field string) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	for _, f := range ve.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestTeacherOverallScore(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	got, err := s.TeacherOverallScore(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	// 4*0.6 + 3*0.4
	if got.OverallScore != 3.6 || got.OverallPercentage != 72 || !got.Accurate {
		t.Fatalf("teacher 10: %+v", got)
	}
	if got.WeightsInfo.TotalWeight != 100 || got.WeightsInfo.KPICount != 2 {
		t.Fatalf("weights: %+v", got.WeightsInfo)
	}

	got, err = s.TeacherOverallScore(ctx, 13)
	if err != nil {
		t.Fatal(err)
	}
	if got.OverallScore != 2 || got.OverallPercentage != 40 || got.Accurate || got.WeightsInfo.IsValid {
		t.Fatalf("invalid weights still computed: %+v", got)
	}

	if _, err := s.TeacherOverallScore(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown teacher: %v", err)
	}
}

func TestKPIScoreAndProgress(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	sc, err := s.KPIScore(ctx, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Score != 4 || sc.ApprovedEvidenceCount != 2 || sc.PendingEvidenceCount != 1 || sc.RejectedEvidenceCount != 0 {
		t.Fatalf("kpi 1: %+v", sc)
	}

	p, err := s.KPIProgress(ctx, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.RemainingCount != 1 || p.IsAchieved || p.RequiredCount == nil || *p.RequiredCount != 2 {
		t.Fatalf("kpi 2 progress: %+v", p)
	}

	p, err = s.KPIProgress(ctx, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAchieved || p.RemainingCount != 0 {
		t.Fatalf("no gate: %+v", p)
	}

	// школа 2 заменила KPI 2 своим
	if _, err := s.KPIScore(ctx, 12, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("shadowed kpi: %v", err)
	}
	if _, err := s.KPIScore(ctx, 12, 4); err != nil {
		t.Fatalf("school kpi: %v", err)
	}
}

func TestWeightValidation(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	w, err := s.WeightValidation(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !w.IsValid || w.KPICount != 2 || w.JobTypeName != "Учитель" {
		t.Fatalf("school 2: %+v", w)
	}

	w, err = s.WeightValidation(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w.IsValid || w.TotalWeight != 50 {
		t.Fatalf("job type 2: %+v", w)
	}

	if _, err := s.WeightValidation(ctx, 1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown school: %v", err)
	}
}

func TestStorageFailureIsDataUnavailable(t *testing.T) {
	m := fixture()
	m.readErr = errors.New("connection refused")
	s := newTestService(m)

	_, err := s.TeacherOverallScore(context.Background(), 10)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("storage fault must not look like not found")
	}
}

func TestTeacherDashboard(t *testing.T) {
	s := newTestService(fixture())
	d, err := s.TeacherDashboard(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if d.Overall.OverallScore != 3.6 || len(d.KPIs) != 2 {
		t.Fatalf("dashboard: %+v", d)
	}
	if d.KPIs[1].KPIID != 2 || d.KPIs[1].Progress.IsAchieved {
		t.Fatalf("kpi rows: %+v", d.KPIs)
	}
}

func TestSchoolWeightWarnings(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	ws, err := s.SchoolWeightWarnings(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].JobTypeID != 2 {
		t.Fatalf("school 1 warnings: %+v", ws)
	}

	ws, err = s.SchoolWeightWarnings(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Fatalf("school 2 warnings: %+v", ws)
	}
}

func TestRankTeachers(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	top, err := s.RankTeachers(ctx, 1, scoring.Top, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].TeacherID != 11 || top[1].TeacherID != 10 {
		t.Fatalf("top: %+v", top)
	}

	bottom, err := s.RankTeachers(ctx, 1, scoring.Bottom, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(bottom) != 3 || bottom[0].TeacherID != 13 || bottom[2].TeacherID != 11 {
		t.Fatalf("bottom: %+v", bottom)
	}
}

func TestListTeachersPage(t *testing.T) {
	s := newTestService(fixture())

	page, err := s.ListTeachers(context.Background(), 1, PageRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	// Абрамова, Иванова | Петров
	if page.Total != 3 || page.Page != 2 || page.PageSize != 2 || len(page.Items) != 1 {
		t.Fatalf("page: %+v", page)
	}
	if page.Items[0].TeacherID != 10 || page.Items[0].Score.OverallScore != 3.6 {
		t.Fatalf("item: %+v", page.Items[0])
	}

	page, err = s.ListTeachers(context.Background(), 1, PageRequest{Page: 5, PageSize: 500})
	if err != nil {
		t.Fatal(err)
	}
	if page.PageSize != MaxPageSize || page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("out of range page: %+v", page)
	}
}

func TestSubmitEvidence(t *testing.T) {
	m := fixture()
	s := newTestService(m)
	ctx := as(models.Teacher, 12, ptrInt64(2))

	tests := []struct {
		name  string
		in    SubmissionInput
		field string
	}{
		{"empty url", SubmissionInput{KPIID: 4, EvidenceID: 102}, "fileUrl"},
		{"relative url", SubmissionInput{KPIID: 4, EvidenceID: 102, FileURL: "x.pdf"}, "fileUrl"},
		{"shadowed kpi", SubmissionInput{KPIID: 2, EvidenceID: 101, FileURL: "https://f.example/a"}, "kpiId"},
		{"shadowed evidence", SubmissionInput{KPIID: 1, EvidenceID: 100, FileURL: "https://f.example/a"}, "evidenceId"},
		{"evidence of other kpi", SubmissionInput{KPIID: 4, EvidenceID: 103, FileURL: "https://f.example/a"}, "evidenceId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SubmitEvidence(ctx, tt.in); !isValidation(err, tt.field) {
				t.Fatalf("want validation error on %s, got %v", tt.field, err)
			}
		})
	}

	sub, err := s.SubmitEvidence(ctx, SubmissionInput{KPIID: 1, EvidenceID: 103, FileURL: " https://f.example/a.pdf ", Description: ptrStr("  ")})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.StatusPending || sub.TeacherID != 12 || sub.FileURL != "https://f.example/a.pdf" || sub.Description != nil {
		t.Fatalf("created: %+v", sub)
	}

	if _, err := s.SubmitEvidence(as(models.SchoolManager, 50, ptrInt64(2)), SubmissionInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager submit: %v", err)
	}
	if _, err := s.SubmitEvidence(context.Background(), SubmissionInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous submit: %v", err)
	}
}

func TestReviewExactlyOnce(t *testing.T) {
	m := fixture()
	s := newTestService(m)
	mgr := as(models.SchoolManager, 50, ptrInt64(1))

	if _, err := s.AcceptSubmission(mgr, 3, 6); !isValidation(err, "rating") {
		t.Fatalf("rating 6: %v", err)
	}
	if _, err := s.RejectSubmission(mgr, 3, "   "); !isValidation(err, "reason") {
		t.Fatalf("empty reason: %v", err)
	}
	if _, err := s.AcceptSubmission(as(models.SchoolManager, 51, ptrInt64(2)), 3, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other school: %v", err)
	}
	if _, err := s.AcceptSubmission(as(models.Teacher, 10, ptrInt64(1)), 3, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("teacher review: %v", err)
	}

	sub, err := s.AcceptSubmission(mgr, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.StatusAccepted || *sub.Rating != 2 || *sub.ReviewedBy != 50 || sub.ReviewedAt == nil {
		t.Fatalf("accepted: %+v", sub)
	}

	if _, err := s.AcceptSubmission(mgr, 3, 5); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second accept: %v", err)
	}
	if _, err := s.RejectSubmission(mgr, 3, "дубль"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("reject after accept: %v", err)
	}
	if _, err := s.AcceptSubmission(mgr, 999, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown submission: %v", err)
	}

	sc, err := s.KPIScore(context.Background(), 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	// (3+5+2)/3
	if sc.Score != 3.33 || sc.PendingEvidenceCount != 0 || sc.ApprovedEvidenceCount != 3 {
		t.Fatalf("score after review: %+v", sc)
	}
}

func TestListSchoolSubmissions(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	page, err := s.ListSchoolSubmissions(ctx, 1, models.StatusPending, PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].ID != 3 || page.PageSize != DefaultPageSize {
		t.Fatalf("pending: %+v", page)
	}

	if _, err := s.ListSchoolSubmissions(ctx, 1, "DONE", PageRequest{}); !isValidation(err, "status") {
		t.Fatalf("bad status: %v", err)
	}
}

func TestCreateKPI(t *testing.T) {
	m := fixture()
	s := newTestService(m)

	ch, err := s.CreateKPI(as(models.Admin, 1, nil), KPIInput{JobTypeID: 2, Name: "Тренинги", Weight: 50})
	if err != nil {
		t.Fatal(err)
	}
	if !ch.KPI.IsOfficial || ch.KPI.SchoolID != nil || !ch.Weights.IsValid {
		t.Fatalf("official kpi: %+v", ch)
	}

	mgr := as(models.SchoolManager, 50, ptrInt64(1))
	ch, err = s.CreateKPI(mgr, KPIInput{JobTypeID: 1, Name: "Уроки (школа 1)", Weight: 50, OverridesKPIID: ptrInt64(1)})
	if err != nil {
		t.Fatal(err)
	}
	// KPI 1 заменён: 40 + 50
	if ch.KPI.IsOfficial || *ch.KPI.SchoolID != 1 || ch.Weights.IsValid || ch.Weights.TotalWeight != 90 {
		t.Fatalf("school kpi: %+v", ch)
	}

	bad := []struct {
		name  string
		in    KPIInput
		field string
	}{
		{"no name", KPIInput{JobTypeID: 1, Weight: 10}, "name"},
		{"three decimals", KPIInput{JobTypeID: 1, Name: "x", Weight: 33.333}, "weight"},
		{"over 100", KPIInput{JobTypeID: 1, Name: "x", Weight: 100.5}, "weight"},
		{"zero minimum", KPIInput{JobTypeID: 1, Name: "x", Weight: 10, MinAcceptedEvidence: ptrInt(0)}, "minAcceptedEvidence"},
		{"unknown job type", KPIInput{JobTypeID: 77, Name: "x", Weight: 10}, "jobTypeId"},
		{"override of other job type", KPIInput{JobTypeID: 1, Name: "x", Weight: 10, OverridesKPIID: ptrInt64(3)}, "overridesKpiId"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateKPI(mgr, tt.in); !isValidation(err, tt.field) {
				t.Fatalf("want validation error on %s, got %v", tt.field, err)
			}
		})
	}

	if _, err := s.CreateKPI(as(models.Teacher, 10, ptrInt64(1)), KPIInput{JobTypeID: 1, Name: "x", Weight: 1}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("teacher create: %v", err)
	}
}

func TestUpdateKPIChangesValidity(t *testing.T) {
	m := fixture()
	s := newTestService(m)

	ch, err := s.UpdateKPI(as(models.Admin, 1, nil), 1, KPIUpdate{Weight: func() *float64 { v := 50.0; return &v }()})
	if err != nil {
		t.Fatal(err)
	}
	if ch.Weights.IsValid || ch.Weights.TotalWeight != 90 {
		t.Fatalf("after lowering weight: %+v", ch.Weights)
	}

	if _, err := s.UpdateKPI(as(models.SchoolManager, 50, ptrInt64(1)), 1, KPIUpdate{Name: ptrStr("x")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager on official kpi: %v", err)
	}

	// отключённая замена больше не скрывает официальный KPI 2
	off := false
	ch, err = s.UpdateKPI(as(models.SchoolManager, 51, ptrInt64(2)), 4, KPIUpdate{IsActive: &off})
	if err != nil {
		t.Fatal(err)
	}
	if ch.Weights.KPICount != 2 || ch.Weights.TotalWeight != 90 {
		t.Fatalf("school 2 after disabling override: %+v", ch.Weights)
	}

	if _, err := s.UpdateKPI(as(models.Admin, 1, nil), 404, KPIUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown kpi: %v", err)
	}
}

func TestSchoolReport(t *testing.T) {
	s := newTestService(fixture())
	ctx := context.Background()

	rep, err := s.SchoolReport(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rep.School.ID != 1 || len(rep.Teachers) != 3 {
		t.Fatalf("report: %+v", rep)
	}
	// учителя в порядке имени
	if rep.Teachers[0].TeacherID != 11 || rep.Teachers[1].TeacherID != 13 || rep.Teachers[2].TeacherID != 10 {
		t.Fatalf("teacher order: %+v", rep.Teachers)
	}
	if rep.Teachers[2].Score.OverallScore != 3.6 {
		t.Fatalf("Петров: %+v", rep.Teachers[2].Score)
	}
	if len(rep.Weights) != 2 || rep.Weights[0].JobTypeName != "Психолог" || rep.Weights[1].JobTypeName != "Учитель" {
		t.Fatalf("weights: %+v", rep.Weights)
	}
	if inv := rep.InvalidWeights(); len(inv) != 1 || inv[0].JobTypeID != 2 {
		t.Fatalf("invalid weights: %+v", inv)
	}

	if _, err := s.SchoolReport(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown school: %v", err)
	}
}
