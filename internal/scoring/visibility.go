package scoring

import "github.com/Spok95/teacher-kpi/internal/models"

// VisibleKPIs returns the active KPIs of jobTypeID that school schoolID sees: its own
// school-specific KPIs plus the official ones it has not overridden. Input order is kept.
func VisibleKPIs(all []models.KPI, jobTypeID, schoolID int64) []models.KPI {
	shadowed := make(map[int64]struct{})
	for _, k := range all {
		if k.IsActive && k.JobTypeID == jobTypeID && isSchool(k.SchoolID, schoolID) && k.OverridesKPIID != nil {
			shadowed[*k.OverridesKPIID] = struct{}{}
		}
	}

	out := make([]models.KPI, 0, len(all))
	for _, k := range all {
		if !k.IsActive || k.JobTypeID != jobTypeID {
			continue
		}
		switch {
		case isSchool(k.SchoolID, schoolID):
			out = append(out, k)
		case k.SchoolID == nil && k.IsOfficial:
			if _, ok := shadowed[k.ID]; !ok {
				out = append(out, k)
			}
		}
	}
	return out
}

// VisibleEvidence applies the same rule to the evidence catalog of one KPI.
func VisibleEvidence(all []models.EvidenceItem, kpiID, schoolID int64) []models.EvidenceItem {
	shadowed := make(map[int64]struct{})
	for _, e := range all {
		if e.IsActive && e.KPIID == kpiID && isSchool(e.SchoolID, schoolID) && e.OverridesEvidenceID != nil {
			shadowed[*e.OverridesEvidenceID] = struct{}{}
		}
	}

	out := make([]models.EvidenceItem, 0, len(all))
	for _, e := range all {
		if !e.IsActive || e.KPIID != kpiID {
			continue
		}
		switch {
		case isSchool(e.SchoolID, schoolID):
			out = append(out, e)
		case e.SchoolID == nil && e.IsOfficial:
			if _, ok := shadowed[e.ID]; !ok {
				out = append(out, e)
			}
		}
	}
	return out
}

func isSchool(id *int64, schoolID int64) bool {
	return id != nil && *id == schoolID
}
