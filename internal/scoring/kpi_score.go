package scoring

import "github.com/Spok95/teacher-kpi/internal/models"

type KPIScore struct {
	KPIID                 int64   `json:"kpiId"`
	Name                  string  `json:"name"`
	Weight                float64 `json:"weight"`
	Score                 float64 `json:"score"`
	ApprovedEvidenceCount int     `json:"approvedEvidenceCount"`
	PendingEvidenceCount  int     `json:"pendingEvidenceCount"`
	RejectedEvidenceCount int     `json:"rejectedEvidenceCount"`

	// mean: неокруглённое среднее, Score только для вывода.
	mean  float64
	exact bool
}

// value is the score used in weighted sums: the unrounded mean when ScoreKPI produced
// it, otherwise Score as given.
func (s KPIScore) value() float64 {
	if s.exact {
		return s.mean
	}
	return s.Score
}

// ScoreKPI averages the ratings of accepted submissions made against kpi.
// Submissions of other KPIs are skipped, so callers may pass a teacher's full list.
func ScoreKPI(kpi models.KPI, subs []models.EvidenceSubmission) KPIScore {
	out := KPIScore{KPIID: kpi.ID, Name: kpi.Name, Weight: kpi.Weight}

	sum, rated := 0, 0
	for _, s := range subs {
		if s.KPIID != kpi.ID {
			continue
		}
		switch s.Status {
		case models.StatusAccepted:
			out.ApprovedEvidenceCount++
			if s.Rating != nil {
				sum += *s.Rating
				rated++
			}
		case models.StatusPending:
			out.PendingEvidenceCount++
		case models.StatusRejected:
			out.RejectedEvidenceCount++
		}
	}
	out.exact = true
	if rated > 0 {
		out.mean = float64(sum) / float64(rated)
		out.Score = Round2(out.mean)
	}
	return out
}
