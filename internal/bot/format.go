package bot

import (
	"fmt"
	"strings"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

func formatDashboard(d *app.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Ваш общий рейтинг: %.2f из 5 (%.2f%%)\n", d.Overall.OverallScore, d.Overall.OverallPercentage)
	if !d.Overall.Accurate {
		fmt.Fprintf(&b, "⚠️ Сумма весов KPI должности «%s» = %.2f, а не 100. Оценка предварительная.\n",
			d.JobType.Name, d.Overall.WeightsInfo.TotalWeight)
	}
	b.WriteString("\n")
	for _, k := range d.KPIs {
		fmt.Fprintf(&b, "▫️ %s (вес %g): %.2f, зачтено %d", k.Name, k.Weight, k.Score, k.ApprovedEvidenceCount)
		if k.PendingEvidenceCount > 0 {
			fmt.Fprintf(&b, ", на проверке %d", k.PendingEvidenceCount)
		}
		if p := k.Progress; p.RequiredCount != nil {
			if p.IsAchieved {
				b.WriteString(" ✅")
			} else {
				fmt.Fprintf(&b, ", нужно ещё %d из %d", p.RemainingCount, *p.RequiredCount)
			}
		}
		b.WriteString("\n")
	}
	if len(d.KPIs) == 0 {
		b.WriteString("Для вашей должности KPI пока не заданы.\n")
	}
	return b.String()
}

func formatWarnings(ws []scoring.WeightValidation) string {
	if len(ws) == 0 {
		return "✅ Веса KPI всех должностей школы в сумме дают 100."
	}
	var b strings.Builder
	b.WriteString("⚠️ Веса KPI не сходятся:\n")
	for _, w := range ws {
		if w.KPICount == 0 {
			fmt.Fprintf(&b, "▫️ %s: нет активных KPI\n", w.JobTypeName)
			continue
		}
		fmt.Fprintf(&b, "▫️ %s: %.2f (KPI: %d)\n", w.JobTypeName, w.TotalWeight, w.KPICount)
	}
	b.WriteString("Оценки учителей этих должностей считаются, но помечены как неточные.")
	return b.String()
}
