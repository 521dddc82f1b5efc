package scoring

import "github.com/Spok95/teacher-kpi/internal/models"

// FullWeight: суммарный вес активных KPI должности, при котором оценки считаются точными.
const FullWeight = 100.0

type WeightValidation struct {
	JobTypeID   int64   `json:"jobTypeId"`
	JobTypeName string  `json:"jobTypeName"`
	TotalWeight float64 `json:"totalWeight"`
	KPICount    int     `json:"kpiCount"`
	IsValid     bool    `json:"isValid"`
}

// ValidateWeights sums the weights of the KPIs visible to a school for one job type.
// Weights are accumulated in integer hundredths, so 33.33+33.33+33.34 is exactly 100.
// An empty set is reported as invalid with a zero total.
func ValidateWeights(jobType models.JobType, kpis []models.KPI) WeightValidation {
	var total int64
	n := 0
	for _, k := range kpis {
		if !k.IsActive || k.JobTypeID != jobType.ID {
			continue
		}
		total += toHundredths(k.Weight)
		n++
	}
	return WeightValidation{
		JobTypeID:   jobType.ID,
		JobTypeName: jobType.Name,
		TotalWeight: float64(total) / 100,
		KPICount:    n,
		IsValid:     n > 0 && total == toHundredths(FullWeight),
	}
}
