package app

import (
	"context"
	"fmt"

	"github.com/Spok95/teacher-kpi/internal/ctxutil"
	"github.com/Spok95/teacher-kpi/internal/models"
)

func principal(ctx context.Context) (ctxutil.Principal, error) {
	p, ok := ctxutil.PrincipalFrom(ctx)
	if !ok || !p.Role.Valid() {
		return ctxutil.Principal{}, fmt.Errorf("no principal: %w", ErrForbidden)
	}
	return p, nil
}

// AuthorizeSchool пускает админа к любой школе, руководителя только к своей.
func AuthorizeSchool(ctx context.Context, schoolID int64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if p.Role == models.Teacher || !p.CanSeeSchool(schoolID) {
		return fmt.Errorf("school %d: %w", schoolID, ErrForbidden)
	}
	return nil
}

// AuthorizeTeacher lets teachers read their own scores, managers the teachers of their
// school and admins everyone.
func (s *Service) AuthorizeTeacher(ctx context.Context, teacherID int64) error {
	p, err := principal(ctx)
	if err != nil {
		return err
	}
	switch p.Role {
	case models.Admin:
		return nil
	case models.Teacher:
		if p.UserID == teacherID {
			return nil
		}
		return fmt.Errorf("teacher %d: %w", teacherID, ErrForbidden)
	}

	var t *models.TeacherProfile
	err = s.store.Read(ctx, func(r Reader) error {
		var err error
		t, err = r.Teacher(ctx, teacherID)
		return err
	})
	if err != nil {
		return s.fail(ctx, "authorize_teacher", err)
	}
	if !p.CanSeeSchool(t.SchoolID) {
		return fmt.Errorf("teacher %d: %w", teacherID, ErrForbidden)
	}
	return nil
}
