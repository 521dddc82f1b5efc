package export

import (
	"fmt"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

const (
	SheetRanking = "Рейтинг"
	SheetWeights = "Веса KPI"
)

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// SchoolReport строит книгу по школе: рейтинг учителей (по убыванию оценки) и
// проверку весов по должностям.
func SchoolReport(rep *app.SchoolReport) (*Workbook, error) {
	jobNames := make(map[int64]string, len(rep.Weights))
	for _, w := range rep.Weights {
		jobNames[w.JobTypeID] = w.JobTypeName
	}

	ranked := scoring.Rank(rep.Teachers, scoring.Top, 0)
	rows := make([][]any, 0, len(ranked))
	for i, t := range ranked {
		job, ok := jobNames[t.JobTypeID]
		if !ok {
			job = fmt.Sprintf("#%d", t.JobTypeID)
		}
		rows = append(rows, []any{
			i + 1,
			t.TeacherName,
			job,
			t.Score.OverallScore,
			t.Score.OverallPercentage,
			yesNo(t.Score.Accurate),
		})
	}

	weights := make([][]any, 0, len(rep.Weights))
	for _, w := range rep.Weights {
		weights = append(weights, []any{w.JobTypeName, w.KPICount, w.TotalWeight, yesNo(w.IsValid)})
	}

	return NewWorkbook([]SheetSpec{
		{
			Title:  SheetRanking,
			Header: []string{"№", "Учитель", "Должность", "Оценка (0–5)", "Процент", "Веса корректны"},
			Rows:   rows,
		},
		{
			Title:  SheetWeights,
			Header: []string{"Должность", "Кол-во KPI", "Сумма весов", "Сумма = 100"},
			Rows:   weights,
		},
	})
}
