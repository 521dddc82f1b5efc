package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/models"
)

type seedKPI struct {
	name     string
	weight   float64
	min      *int
	evidence []string
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// SeedDemo наполняет пустую базу демонстрационным справочником: школа, должности,
// официальные KPI (веса в сумме 100), один школьный KPI-замена и несколько учителей
// с проверенными доказательствами. Если школы уже есть, ничего не делает.
func SeedDemo(ctx context.Context, database *sql.DB, log *zap.Logger) error {
	var n int
	if err := database.QueryRowContext(ctx, `SELECT count(*) FROM schools`).Scan(&n); err != nil {
		return fmt.Errorf("count schools: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schoolID, err := CreateSchool(ctx, tx, "Школа №1")
	if err != nil {
		return fmt.Errorf("seed school: %w", err)
	}

	catalog := map[string][]seedKPI{
		"Учитель": {
			{name: "Качество уроков", weight: 40, evidence: []string{"Открытый урок", "Отзыв методиста"}},
			{name: "Олимпиады и конкурсы", weight: 33.33, min: intPtr(2), evidence: []string{"Диплом призёра"}},
			{name: "Повышение квалификации", weight: 26.67, min: intPtr(1), evidence: []string{"Сертификат курсов"}},
		},
		"Психолог": {
			{name: "Консультации", weight: 60, evidence: []string{"Журнал консультаций"}},
			{name: "Диагностика", weight: 40, evidence: []string{"Отчёт о диагностике"}},
		},
	}

	jobTypes := map[string]int64{}
	kpiIDs := map[string]int64{}
	evidenceIDs := map[string]int64{}
	for _, jtName := range []string{"Учитель", "Психолог"} {
		jtID, err := CreateJobType(ctx, tx, jtName)
		if err != nil {
			return fmt.Errorf("seed job type %s: %w", jtName, err)
		}
		jobTypes[jtName] = jtID
		for _, k := range catalog[jtName] {
			id, err := CreateKPI(ctx, tx, models.KPI{
				JobTypeID: jtID, Name: k.name, Weight: k.weight, MinAcceptedEvidence: k.min,
				IsOfficial: true, IsActive: true,
			})
			if err != nil {
				return fmt.Errorf("seed kpi %s: %w", k.name, err)
			}
			kpiIDs[k.name] = id
			for _, e := range k.evidence {
				eid, err := CreateEvidenceItem(ctx, tx, models.EvidenceItem{KPIID: id, Name: e, IsOfficial: true, IsActive: true})
				if err != nil {
					return fmt.Errorf("seed evidence %s: %w", e, err)
				}
				evidenceIDs[e] = eid
			}
		}
	}

	// школа заменяет «Повышение квалификации» своим KPI с тем же весом
	ownID, err := CreateKPI(ctx, tx, models.KPI{
		JobTypeID: jobTypes["Учитель"], Name: "Наставничество", Weight: 26.67,
		SchoolID: int64Ptr(schoolID), OverridesKPIID: int64Ptr(kpiIDs["Повышение квалификации"]), IsActive: true,
	})
	if err != nil {
		return fmt.Errorf("seed school kpi: %w", err)
	}
	ownEv, err := CreateEvidenceItem(ctx, tx, models.EvidenceItem{KPIID: ownID, Name: "Отчёт наставника", SchoolID: int64Ptr(schoolID), IsActive: true})
	if err != nil {
		return fmt.Errorf("seed school evidence: %w", err)
	}

	if _, err := CreateUser(ctx, tx, models.User{Name: "Администратор", Role: models.Admin, IsActive: true}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	managerID, err := CreateUser(ctx, tx, models.User{Name: "Завуч", Role: models.SchoolManager, SchoolID: int64Ptr(schoolID), IsActive: true})
	if err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	teachers := []struct {
		name    string
		jobType string
	}{
		{"Иванова Мария", "Учитель"},
		{"Петров Сергей", "Учитель"},
		{"Смирнова Анна", "Психолог"},
	}
	teacherIDs := make([]int64, 0, len(teachers))
	for _, t := range teachers {
		id, err := CreateUser(ctx, tx, models.User{
			Name: t.name, Role: models.Teacher, SchoolID: int64Ptr(schoolID),
			JobTypeID: int64Ptr(jobTypes[t.jobType]), IsActive: true,
		})
		if err != nil {
			return fmt.Errorf("seed teacher %s: %w", t.name, err)
		}
		teacherIDs = append(teacherIDs, id)
	}

	now := time.Now()
	subs := []struct {
		teacher  int64
		kpi      int64
		evidence int64
		rating   int
	}{
		{teacherIDs[0], kpiIDs["Качество уроков"], evidenceIDs["Открытый урок"], 5},
		{teacherIDs[0], kpiIDs["Олимпиады и конкурсы"], evidenceIDs["Диплом призёра"], 4},
		{teacherIDs[0], ownID, ownEv, 5},
		{teacherIDs[1], kpiIDs["Качество уроков"], evidenceIDs["Отзыв методиста"], 3},
		{teacherIDs[2], kpiIDs["Консультации"], evidenceIDs["Журнал консультаций"], 4},
	}
	for i, s := range subs {
		created, err := CreateSubmission(ctx, tx, models.EvidenceSubmission{
			TeacherID: s.teacher, KPIID: s.kpi, EvidenceID: s.evidence,
			FileURL:   fmt.Sprintf("https://files.example.org/demo/%d.pdf", i+1),
			Status:    models.StatusPending,
			CreatedAt: now.Add(-time.Duration(len(subs)-i) * time.Hour),
		})
		if err != nil {
			return fmt.Errorf("seed submission: %w", err)
		}
		if _, err := AcceptSubmission(ctx, tx, created.ID, managerID, s.rating, now); err != nil {
			return fmt.Errorf("seed review: %w", err)
		}
	}
	// одна заявка остаётся на проверке
	if _, err := CreateSubmission(ctx, tx, models.EvidenceSubmission{
		TeacherID: teacherIDs[1], KPIID: kpiIDs["Олимпиады и конкурсы"], EvidenceID: evidenceIDs["Диплом призёра"],
		FileURL: "https://files.example.org/demo/pending.pdf", Status: models.StatusPending, CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("seed pending submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("demo data seeded", zap.Int64("school_id", schoolID), zap.Int("teachers", len(teacherIDs)))
	return nil
}
