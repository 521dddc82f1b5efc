package models

type School struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

type JobType struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// KPI is a weighted criterion of a job type. A row with SchoolID set belongs to one
// school; OverridesKPIID points at the official KPI it replaces for that school.
type KPI struct {
	ID                  int64   `db:"id" json:"id"`
	JobTypeID           int64   `db:"job_type_id" json:"jobTypeId"`
	Name                string  `db:"name" json:"name"`
	Weight              float64 `db:"weight" json:"weight"`
	MinAcceptedEvidence *int    `db:"min_accepted_evidence" json:"minAcceptedEvidence"`
	IsOfficial          bool    `db:"is_official" json:"isOfficial"`
	SchoolID            *int64  `db:"school_id" json:"schoolId,omitempty"`
	OverridesKPIID      *int64  `db:"overrides_kpi_id" json:"overridesKpiId,omitempty"`
	IsActive            bool    `db:"is_active" json:"isActive"`
}

type EvidenceItem struct {
	ID                  int64  `db:"id" json:"id"`
	KPIID               int64  `db:"kpi_id" json:"kpiId"`
	Name                string `db:"name" json:"name"`
	IsOfficial          bool   `db:"is_official" json:"isOfficial"`
	SchoolID            *int64 `db:"school_id" json:"schoolId,omitempty"`
	OverridesEvidenceID *int64 `db:"overrides_evidence_id" json:"overridesEvidenceId,omitempty"`
	IsActive            bool   `db:"is_active" json:"isActive"`
}
