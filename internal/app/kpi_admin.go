package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

// KPIInput: новый KPI. Админ создаёт официальные KPI, руководитель создаёт KPI своей школы
// (в том числе заменяющие официальный через OverridesKPIID).
type KPIInput struct {
	JobTypeID           int64   `json:"jobTypeId" validate:"required"`
	Name                string  `json:"name" validate:"notblank"`
	Weight              float64 `json:"weight" validate:"min=0,max=100,hundredths"`
	MinAcceptedEvidence *int    `json:"minAcceptedEvidence" validate:"omitempty,gt=0"`
	OverridesKPIID      *int64  `json:"overridesKpiId"`
}

// KPIUpdate: частичное изменение; отсутствующие поля не трогаем.
type KPIUpdate struct {
	Name                *string  `json:"name" validate:"omitempty,notblank"`
	Weight              *float64 `json:"weight" validate:"omitempty,min=0,max=100,hundredths"`
	MinAcceptedEvidence *int     `json:"minAcceptedEvidence" validate:"omitempty,gt=0"`
	ClearMinAccepted    bool     `json:"clearMinAcceptedEvidence"`
	IsActive            *bool    `json:"isActive"`
}

// KPIChange is the stored KPI together with the weight check it leads to.
type KPIChange struct {
	KPI     models.KPI               `json:"kpi"`
	Weights scoring.WeightValidation `json:"weights"`
}

// weightScope: школа, для которой показываем проверку весов после изменения.
// Для официальных KPI школы нет: проверяется официальный набор.
func weightScope(k models.KPI) int64 {
	if k.SchoolID != nil {
		return *k.SchoolID
	}
	return 0
}

func (s *Service) kpiChange(ctx context.Context, id int64) (*KPIChange, error) {
	var out *KPIChange
	err := s.store.Read(ctx, func(r Reader) error {
		k, err := r.KPI(ctx, id)
		if err != nil {
			return err
		}
		jt, err := r.JobType(ctx, k.JobTypeID)
		if err != nil {
			return err
		}
		school := weightScope(*k)
		cand, err := r.KPICandidates(ctx, k.JobTypeID, school)
		if err != nil {
			return err
		}
		out = &KPIChange{
			KPI:     *k,
			Weights: scoring.ValidateWeights(*jt, scoring.VisibleKPIs(cand, k.JobTypeID, school)),
		}
		return nil
	})
	return out, err
}

func (s *Service) CreateKPI(ctx context.Context, in KPIInput) (*KPIChange, error) {
	ctx = ctxutil.WithOp(ctx, "create_kpi")
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	checkStruct(ve, in)
	in.Name = strings.TrimSpace(in.Name)

	k := models.KPI{
		JobTypeID:           in.JobTypeID,
		Name:                in.Name,
		Weight:              scoring.Round2(in.Weight),
		MinAcceptedEvidence: in.MinAcceptedEvidence,
		IsActive:            true,
	}
	switch p.Role {
	case models.Admin:
		if in.OverridesKPIID != nil {
			ve.add("overridesKpiId", "only school KPIs override official ones")
		}
		k.IsOfficial = true
	case models.SchoolManager:
		if p.SchoolID == nil {
			return nil, fmt.Errorf("manager %d without school: %w", p.UserID, ErrForbidden)
		}
		school := *p.SchoolID
		k.SchoolID = &school
		k.OverridesKPIID = in.OverridesKPIID
	default:
		return nil, fmt.Errorf("create kpi as %s: %w", p.Role, ErrForbidden)
	}

	err = s.store.Read(ctx, func(r Reader) error {
		if _, err := r.JobType(ctx, in.JobTypeID); err != nil {
			if errors.Is(err, ErrNotFound) {
				ve.add("jobTypeId", "unknown job type")
				return nil
			}
			return err
		}
		if in.OverridesKPIID == nil || k.IsOfficial {
			return nil
		}
		base, err := r.KPI(ctx, *in.OverridesKPIID)
		if errors.Is(err, ErrNotFound) {
			ve.add("overridesKpiId", "unknown kpi")
			return nil
		}
		if err != nil {
			return err
		}
		if !base.IsOfficial || base.SchoolID != nil || base.JobTypeID != in.JobTypeID {
			ve.add("overridesKpiId", "must be an official kpi of the same job type")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "create_kpi", err)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateKPI(ctx, k)
	if err != nil {
		return nil, s.fail(ctx, "create_kpi", err)
	}
	out, err := s.kpiChange(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "create_kpi", err)
	}
	s.logWeights(ctx, "kpi created", out)
	return out, nil
}

// UpdateKPI applies a partial change. Managers may only touch their school's KPIs,
// admins only official ones.
func (s *Service) UpdateKPI(ctx context.Context, id int64, in KPIUpdate) (*KPIChange, error) {
	ctx = ctxutil.WithOp(ctx, "update_kpi")
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	checkStruct(ve, in)
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if in.Weight != nil {
		w := scoring.Round2(*in.Weight)
		in.Weight = &w
	}

	err = s.store.Read(ctx, func(r Reader) error {
		k, err := r.KPI(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case p.Role == models.Admin && k.SchoolID == nil:
		case p.Role == models.SchoolManager && k.SchoolID != nil && p.CanSeeSchool(*k.SchoolID):
		default:
			return fmt.Errorf("kpi %d: %w", id, ErrForbidden)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "update_kpi", err)
	}

	patch := db.KPIPatch{
		Name:                in.Name,
		Weight:              in.Weight,
		MinAcceptedEvidence: in.MinAcceptedEvidence,
		ClearMinAccepted:    in.ClearMinAccepted,
		IsActive:            in.IsActive,
	}
	if err := s.store.UpdateKPI(ctx, id, patch); err != nil {
		return nil, s.fail(ctx, "update_kpi", err)
	}
	out, err := s.kpiChange(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "update_kpi", err)
	}
	s.logWeights(ctx, "kpi updated", out)
	return out, nil
}

func (s *Service) logWeights(ctx context.Context, msg string, c *KPIChange) {
	lg := logging.FromContext(ctx, s.log).With(
		zap.Int64("kpi_id", c.KPI.ID),
		zap.Float64("total_weight", c.Weights.TotalWeight),
	)
	if !c.Weights.IsValid {
		lg.Warn(msg+": weights do not sum to 100", zap.Int64("job_type_id", c.Weights.JobTypeID))
		return
	}
	lg.Info(msg)
}
