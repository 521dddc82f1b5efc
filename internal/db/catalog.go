package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

func CreateSchool(ctx context.Context, q Querier, name string) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := q.QueryRowContext(ctx, `INSERT INTO schools (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func GetSchool(ctx context.Context, q Querier, id int64) (*models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.School
	err := q.QueryRowContext(ctx, `SELECT id, name, is_active FROM schools WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.IsActive)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func ListSchools(ctx context.Context, q Querier, includeInactive bool) ([]models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT id, name, is_active FROM schools`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func CreateJobType(ctx context.Context, q Querier, name string) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := q.QueryRowContext(ctx, `INSERT INTO job_types (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func GetJobType(ctx context.Context, q Querier, id int64) (*models.JobType, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var jt models.JobType
	err := q.QueryRowContext(ctx, `SELECT id, name, is_active FROM job_types WHERE id = $1`, id).
		Scan(&jt.ID, &jt.Name, &jt.IsActive)
	if err != nil {
		return nil, notFound(err)
	}
	return &jt, nil
}

// ListJobTypes список должностей (при includeInactive=true вернём и скрытые)
func ListJobTypes(ctx context.Context, q Querier, includeInactive bool) ([]models.JobType, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT id, name, is_active FROM job_types`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.JobType
	for rows.Next() {
		var jt models.JobType
		if err := rows.Scan(&jt.ID, &jt.Name, &jt.IsActive); err != nil {
			return nil, err
		}
		out = append(out, jt)
	}
	return out, rows.Err()
}

const kpiColumns = `id, job_type_id, name, weight, min_accepted_evidence, is_official, school_id, overrides_kpi_id, is_active`

func scanKPI(s scanner) (models.KPI, error) {
	var (
		k        models.KPI
		minAcc   sql.NullInt64
		schoolID sql.NullInt64
		override sql.NullInt64
	)
	if err := s.Scan(&k.ID, &k.JobTypeID, &k.Name, &k.Weight, &minAcc, &k.IsOfficial, &schoolID, &override, &k.IsActive); err != nil {
		return k, err
	}
	k.MinAcceptedEvidence = nullIntPtr(minAcc)
	k.SchoolID = nullInt64Ptr(schoolID)
	k.OverridesKPIID = nullInt64Ptr(override)
	return k, nil
}

func CreateKPI(ctx context.Context, q Querier, k models.KPI) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO kpis (job_type_id, name, weight, min_accepted_evidence, is_official, school_id, overrides_kpi_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, k.JobTypeID, k.Name, k.Weight, k.MinAcceptedEvidence, k.IsOfficial, k.SchoolID, k.OverridesKPIID, k.IsActive).Scan(&id)
	return id, err
}

func GetKPI(ctx context.Context, q Querier, id int64) (*models.KPI, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	k, err := scanKPI(q.QueryRowContext(ctx, `SELECT `+kpiColumns+` FROM kpis WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

// KPIPatch: частичное обновление KPI; nil-поля не меняются.
type KPIPatch struct {
	Name                *string
	Weight              *float64
	MinAcceptedEvidence *int
	ClearMinAccepted    bool
	IsActive            *bool
}

func UpdateKPI(ctx context.Context, q Querier, id int64, p KPIPatch) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Weight != nil {
		add("weight", *p.Weight)
	}
	if p.ClearMinAccepted {
		sets = append(sets, "min_accepted_evidence = NULL")
	} else if p.MinAcceptedEvidence != nil {
		add("min_accepted_evidence", *p.MinAcceptedEvidence)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE kpis SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// ListKPICandidates returns active official KPIs and the school's own KPIs of a job type,
// ordered by id. Visibility (overrides) is resolved by scoring.VisibleKPIs.
func ListKPICandidates(ctx context.Context, q Querier, jobTypeID, schoolID int64) ([]models.KPI, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return queryKPIs(ctx, q, `
		SELECT `+kpiColumns+`
		FROM kpis
		WHERE job_type_id = $1
		  AND is_active = TRUE
		  AND (school_id IS NULL OR school_id = $2)
		ORDER BY id
	`, jobTypeID, schoolID)
}

// ListSchoolKPICandidates: то же самое, но по всем должностям сразу.
func ListSchoolKPICandidates(ctx context.Context, q Querier, schoolID int64) ([]models.KPI, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return queryKPIs(ctx, q, `
		SELECT `+kpiColumns+`
		FROM kpis
		WHERE is_active = TRUE
		  AND (school_id IS NULL OR school_id = $1)
		ORDER BY id
	`, schoolID)
}

func queryKPIs(ctx context.Context, q Querier, query string, args ...any) ([]models.KPI, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.KPI
	for rows.Next() {
		k, err := scanKPI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

const evidenceColumns = `id, kpi_id, name, is_official, school_id, overrides_evidence_id, is_active`

func scanEvidence(s scanner) (models.EvidenceItem, error) {
	var (
		e        models.EvidenceItem
		schoolID sql.NullInt64
		override sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.KPIID, &e.Name, &e.IsOfficial, &schoolID, &override, &e.IsActive); err != nil {
		return e, err
	}
	e.SchoolID = nullInt64Ptr(schoolID)
	e.OverridesEvidenceID = nullInt64Ptr(override)
	return e, nil
}

func CreateEvidenceItem(ctx context.Context, q Querier, e models.EvidenceItem) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO evidence_items (kpi_id, name, is_official, school_id, overrides_evidence_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, e.KPIID, e.Name, e.IsOfficial, e.SchoolID, e.OverridesEvidenceID, e.IsActive).Scan(&id)
	return id, err
}

func GetEvidenceItem(ctx context.Context, q Querier, id int64) (*models.EvidenceItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	e, err := scanEvidence(q.QueryRowContext(ctx, `SELECT `+evidenceColumns+` FROM evidence_items WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func ListEvidenceCandidates(ctx context.Context, q Querier, kpiID, schoolID int64) ([]models.EvidenceItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx, `
		SELECT `+evidenceColumns+`
		FROM evidence_items
		WHERE kpi_id = $1
		  AND is_active = TRUE
		  AND (school_id IS NULL OR school_id = $2)
		ORDER BY id
	`, kpiID, schoolID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.EvidenceItem
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
