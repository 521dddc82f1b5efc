package scoring

type Progress struct {
	KPIID          int64 `json:"kpiId"`
	RequiredCount  *int  `json:"requiredCount"`
	ApprovedCount  int   `json:"approvedCount"`
	RemainingCount int   `json:"remainingCount"`
	IsAchieved     bool  `json:"isAchieved"`
}

// KPIProgress checks the minimum-accepted-evidence gate of a KPI.
// A nil or non-positive minimum means there is no gate and the KPI counts as achieved.
func KPIProgress(kpiID int64, minAccepted *int, approved int) Progress {
	p := Progress{KPIID: kpiID, ApprovedCount: approved}
	if minAccepted == nil || *minAccepted <= 0 {
		p.IsAchieved = true
		return p
	}
	req := *minAccepted
	p.RequiredCount = &req
	if rem := req - approved; rem > 0 {
		p.RemainingCount = rem
	}
	p.IsAchieved = approved >= req
	return p
}
