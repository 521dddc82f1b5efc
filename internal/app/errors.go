package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/teacher-kpi/internal/db"
)

var (
	// ErrDataUnavailable marks storage faults (connection lost, timeout, bad rows).
	ErrDataUnavailable = errors.New("data unavailable")
	ErrNotFound        = db.ErrNotFound
	ErrAlreadyReviewed = db.ErrAlreadyReviewed
	ErrForbidden       = errors.New("forbidden")
)

// FieldError описывает ошибку конкретного поля запроса.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Error: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// storageErr passes domain errors through and wraps everything else as ErrDataUnavailable.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyReviewed),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDataUnavailable),
		errors.As(err, &ve):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDataUnavailable, err)
}

func isUnavailable(err error) bool { return errors.Is(err, ErrDataUnavailable) }
