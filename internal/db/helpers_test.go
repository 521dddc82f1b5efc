//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/models"
)

type fixture struct {
	school   int64
	other    int64
	jobType  int64
	teacher  int64
	manager  int64
	kpis     []int64
	evidence int64
}

// seedCatalog: школа, должность с двумя официальными KPI (60 + 40), учитель и руководитель.
func seedCatalog(t *testing.T, dbx *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error

	if f.school, err = db.CreateSchool(ctx, dbx, "Школа №1"); err != nil {
		t.Fatal(err)
	}
	if f.other, err = db.CreateSchool(ctx, dbx, "Школа №2"); err != nil {
		t.Fatal(err)
	}
	if f.jobType, err = db.CreateJobType(ctx, dbx, "Учитель"); err != nil {
		t.Fatal(err)
	}
	for _, k := range []models.KPI{
		{JobTypeID: f.jobType, Name: "Уроки", Weight: 60, IsOfficial: true, IsActive: true},
		{JobTypeID: f.jobType, Name: "Олимпиады", Weight: 40, MinAcceptedEvidence: ptrInt(2), IsOfficial: true, IsActive: true},
	} {
		id, err := db.CreateKPI(ctx, dbx, k)
		if err != nil {
			t.Fatal(err)
		}
		f.kpis = append(f.kpis, id)
	}
	if f.evidence, err = db.CreateEvidenceItem(ctx, dbx, models.EvidenceItem{KPIID: f.kpis[0], Name: "Открытый урок", IsOfficial: true, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	if f.teacher, err = db.CreateUser(ctx, dbx, models.User{
		Name: "Петров", Role: models.Teacher, SchoolID: &f.school, JobTypeID: &f.jobType, IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}
	if f.manager, err = db.CreateUser(ctx, dbx, models.User{
		Name: "Завуч", Role: models.SchoolManager, SchoolID: &f.school, IsActive: true, TelegramID: ptrInt64(555),
	}); err != nil {
		t.Fatal(err)
	}
	return f
}

func mustSubmit(t *testing.T, dbx *sql.DB, f fixture) int64 {
	t.Helper()
	s, err := db.CreateSubmission(context.Background(), dbx, models.EvidenceSubmission{
		TeacherID: f.teacher, KPIID: f.kpis[0], EvidenceID: f.evidence, FileURL: "https://files.example/a.pdf",
	})
	if err != nil {
		t.Fatal(err)
	}
	return s.ID
}

func ptrInt(v int) *int       { return &v }
func ptrInt64(v int64) *int64 { return &v }
