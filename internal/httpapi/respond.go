package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/observability"
)

type errorBody struct {
	Error  string           `json:"error"`
	Fields []app.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// statusOf maps service errors to HTTP codes.
func statusOf(err error) int {
	var ve *app.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, app.ErrAlreadyReviewed):
		return http.StatusConflict
	case errors.Is(err, app.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	var ve *app.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, code, errorBody{Error: "validation failed", Fields: ve.Fields})
		return
	case code == http.StatusInternalServerError:
		metrics.HandlerErrors.Inc()
		observability.CaptureErrCtx(r.Context(), err)
		logging.FromContext(r.Context(), h.log).Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, code, "internal error")
		return
	case code == http.StatusServiceUnavailable:
		metrics.HandlerErrors.Inc()
		writeMessage(w, code, "data unavailable")
		return
	}
	writeMessage(w, code, http.StatusText(code))
}

// recoverer ловит панику обработчика: лог, Sentry, счётчик и 500 в JSON.
func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				metrics.HandlerErrors.Inc()
				observability.CaptureErrCtx(r.Context(), fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec))
				logging.FromContext(r.Context(), log).Error("handler panic",
					zap.String("path", r.URL.Path), zap.Any("panic", rec), zap.Stack("stack"))
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
