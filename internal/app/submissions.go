package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

// SubmissionInput: загрузка доказательства учителем. Файл уже лежит во внешнем
// хранилище, сюда приходит только ссылка.
type SubmissionInput struct {
	KPIID       int64   `json:"kpiId" validate:"required"`
	EvidenceID  int64   `json:"evidenceId" validate:"required"`
	FileURL     string  `json:"fileUrl" validate:"required,url"`
	Description *string `json:"description"`
}

// SubmitEvidence creates a PENDING submission for the calling teacher.
func (s *Service) SubmitEvidence(ctx context.Context, in SubmissionInput) (*models.EvidenceSubmission, error) {
	ctx = ctxutil.WithOp(ctx, "submit_evidence")
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role != models.Teacher {
		return nil, fmt.Errorf("submit evidence as %s: %w", p.Role, ErrForbidden)
	}

	ve := &ValidationError{}
	in.FileURL = strings.TrimSpace(in.FileURL)
	checkStruct(ve, in)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}

	err = s.store.Read(ctx, func(r Reader) error {
		t, err := r.Teacher(ctx, p.UserID)
		if err != nil {
			return err
		}
		cand, err := r.KPICandidates(ctx, t.JobTypeID, t.SchoolID)
		if err != nil {
			return err
		}
		if !containsKPI(scoring.VisibleKPIs(cand, t.JobTypeID, t.SchoolID), in.KPIID) {
			ve.add("kpiId", "not available for this teacher")
			return nil
		}
		ev, err := r.EvidenceCandidates(ctx, in.KPIID, t.SchoolID)
		if err != nil {
			return err
		}
		if !containsEvidence(scoring.VisibleEvidence(ev, in.KPIID, t.SchoolID), in.EvidenceID) {
			ve.add("evidenceId", "not available for this kpi")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "submit_evidence", err)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	sub, err := s.store.CreateSubmission(ctx, models.EvidenceSubmission{
		TeacherID:   p.UserID,
		KPIID:       in.KPIID,
		EvidenceID:  in.EvidenceID,
		FileURL:     in.FileURL,
		Description: in.Description,
		Status:      models.StatusPending,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, s.fail(ctx, "submit_evidence", err)
	}
	logging.FromContext(ctx, s.log).Info("evidence submitted",
		zap.Int64("submission_id", sub.ID), zap.Int64("kpi_id", sub.KPIID))
	return sub, nil
}

func containsKPI(kpis []models.KPI, id int64) bool {
	for _, k := range kpis {
		if k.ID == id {
			return true
		}
	}
	return false
}

func containsEvidence(items []models.EvidenceItem, id int64) bool {
	for _, e := range items {
		if e.ID == id {
			return true
		}
	}
	return false
}

// reviewer checks that the caller is the manager of the submission's school.
func (s *Service) reviewer(ctx context.Context, id int64) (ctxutil.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return p, err
	}
	if p.Role != models.SchoolManager {
		return p, fmt.Errorf("review as %s: %w", p.Role, ErrForbidden)
	}
	err = s.store.Read(ctx, func(r Reader) error {
		sub, err := r.Submission(ctx, id)
		if err != nil {
			return err
		}
		t, err := r.Teacher(ctx, sub.TeacherID)
		if err != nil {
			return err
		}
		if !p.CanSeeSchool(t.SchoolID) {
			return fmt.Errorf("submission %d: %w", id, ErrForbidden)
		}
		return nil
	})
	return p, err
}

// AcceptSubmission moves a PENDING submission to ACCEPTED with a 1–5 rating.
// A second review of the same submission fails with ErrAlreadyReviewed.
func (s *Service) AcceptSubmission(ctx context.Context, id int64, rating int) (*models.EvidenceSubmission, error) {
	ctx = ctxutil.WithOp(ctx, "accept_submission")
	if rating < models.MinRating || rating > models.MaxRating {
		ve := &ValidationError{}
		ve.add("rating", fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating))
		return nil, ve
	}
	p, err := s.reviewer(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "accept_submission", err)
	}
	sub, err := s.store.AcceptSubmission(ctx, id, p.UserID, rating, s.now())
	if err != nil {
		return nil, s.fail(ctx, "accept_submission", err)
	}
	metrics.SubmissionReviews.WithLabelValues(string(models.StatusAccepted)).Inc()
	logging.FromContext(ctx, s.log).Info("submission accepted",
		zap.Int64("submission_id", id), zap.Int("rating", rating))
	return sub, nil
}

// RejectSubmission moves a PENDING submission to REJECTED. The reason is required.
func (s *Service) RejectSubmission(ctx context.Context, id int64, reason string) (*models.EvidenceSubmission, error) {
	ctx = ctxutil.WithOp(ctx, "reject_submission")
	reason = strings.TrimSpace(reason)
	if reason == "" {
		ve := &ValidationError{}
		ve.add("reason", "required")
		return nil, ve
	}
	p, err := s.reviewer(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "reject_submission", err)
	}
	sub, err := s.store.RejectSubmission(ctx, id, p.UserID, reason, s.now())
	if err != nil {
		return nil, s.fail(ctx, "reject_submission", err)
	}
	metrics.SubmissionReviews.WithLabelValues(string(models.StatusRejected)).Inc()
	logging.FromContext(ctx, s.log).Info("submission rejected", zap.Int64("submission_id", id))
	return sub, nil
}

// ListSchoolSubmissions returns a page of the school's submissions in upload order.
// An empty status lists all of them.
func (s *Service) ListSchoolSubmissions(ctx context.Context, schoolID int64, status models.SubmissionStatus, req PageRequest) (Page[models.EvidenceSubmission], error) {
	ctx = ctxutil.WithOp(ctx, "list_submissions")
	if status != "" && !status.Valid() {
		ve := &ValidationError{}
		ve.add("status", "must be PENDING, ACCEPTED or REJECTED")
		return Page[models.EvidenceSubmission]{}, ve
	}
	req = req.normalize()
	var out Page[models.EvidenceSubmission]
	err := s.store.Read(ctx, func(r Reader) error {
		if _, err := r.School(ctx, schoolID); err != nil {
			return err
		}
		items, total, err := r.SchoolSubmissions(ctx, schoolID, status, req.PageSize, req.offset())
		if err != nil {
			return err
		}
		out = newPage(items, req, total)
		return nil
	})
	if err != nil {
		return Page[models.EvidenceSubmission]{}, s.fail(ctx, "list_submissions", err)
	}
	return out, nil
}
