package scoring

import "github.com/Spok95/teacher-kpi/internal/models"

// MaxScore: верхняя граница шкалы оценки (рейтинг 1–5).
const MaxScore = 5.0

type OverallScore struct {
	OverallScore      float64          `json:"overallScore"`
	OverallPercentage float64          `json:"overallPercentage"`
	WeightsInfo       WeightValidation `json:"weightsInfo"`
	// Accurate is false when the job type's weights do not add up to 100.
	Accurate bool `json:"accurate"`
}

// Aggregate combines per-KPI scores into the weighted overall score. It always computes;
// an invalid weight set only clears Accurate. The sum runs over unrounded KPI means and
// only the two outputs are rounded.
func Aggregate(scores []KPIScore, weights WeightValidation) OverallScore {
	var overall float64
	for _, s := range scores {
		overall += s.value() * s.Weight / FullWeight
	}
	return OverallScore{
		OverallScore:      Round2(overall),
		OverallPercentage: Round2(overall * 100 / MaxScore),
		WeightsInfo:       weights,
		Accurate:          weights.IsValid,
	}
}

// ScoreTeacher runs the calculator for every visible KPI and aggregates the result.
// kpis must already be the set visible to the teacher's school for its job type.
func ScoreTeacher(jobType models.JobType, kpis []models.KPI, subs []models.EvidenceSubmission) (OverallScore, []KPIScore) {
	weights := ValidateWeights(jobType, kpis)
	scores := make([]KPIScore, 0, len(kpis))
	for _, k := range kpis {
		if !k.IsActive || k.JobTypeID != jobType.ID {
			continue
		}
		scores = append(scores, ScoreKPI(k, subs))
	}
	return Aggregate(scores, weights), scores
}
