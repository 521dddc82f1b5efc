package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/export"
	"github.com/Spok95/teacher-kpi/internal/logging"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

const defaultRankingLimit = 10

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, ve *app.ValidationError, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		ve.Fields = append(ve.Fields, app.FieldError{Field: name, Error: "must be a non-negative integer"})
		return def
	}
	return v
}

func pageRequest(r *http.Request, ve *app.ValidationError) app.PageRequest {
	return app.PageRequest{
		Page:     queryInt(r, ve, "page", 1),
		PageSize: queryInt(r, ve, "pageSize", app.DefaultPageSize),
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &app.ValidationError{Fields: []app.FieldError{{Field: "body", Error: err.Error()}}}
	}
	return nil
}

func (h *handlers) weights(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	jobTypeID, ok := pathID(w, r, "jobTypeID")
	if !ok {
		return
	}
	res, err := h.svc.WeightValidation(r.Context(), jobTypeID, schoolID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) weightWarnings(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	res, err := h.svc.SchoolWeightWarnings(r.Context(), schoolID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) teachers(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	ve := &app.ValidationError{}
	req := pageRequest(r, ve)
	if len(ve.Fields) > 0 {
		h.fail(w, r, ve)
		return
	}
	page, err := h.svc.ListTeachers(r.Context(), schoolID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) ranking(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	ve := &app.ValidationError{}
	order := scoring.Order(r.URL.Query().Get("order"))
	switch order {
	case "":
		order = scoring.Top
	case scoring.Top, scoring.Bottom:
	default:
		ve.Fields = append(ve.Fields, app.FieldError{Field: "order", Error: "must be top or bottom"})
	}
	limit := queryInt(r, ve, "limit", defaultRankingLimit)
	if len(ve.Fields) > 0 {
		h.fail(w, r, ve)
		return
	}
	res, err := h.svc.RankTeachers(r.Context(), schoolID, order, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	rep, err := h.svc.SchoolReport(r.Context(), schoolID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	wb, err := export.SchoolReport(rep)
	if err != nil {
		h.fail(w, r, fmt.Errorf("build report: %w", err))
		return
	}
	defer func() { _ = wb.Close() }()

	name := export.BuildSchoolReportFilename(rep.School.Name, h.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name)))
	if _, err := wb.WriteTo(w); err != nil {
		logging.FromContext(r.Context(), h.log).Warn("write report", zap.Error(err))
	}
}

func (h *handlers) schoolSubmissions(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.ParseInt(chi.URLParam(r, "schoolID"), 10, 64)
	ve := &app.ValidationError{}
	req := pageRequest(r, ve)
	if len(ve.Fields) > 0 {
		h.fail(w, r, ve)
		return
	}
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	page, err := h.svc.ListSchoolSubmissions(r.Context(), schoolID, status, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) teacherScore(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := strconv.ParseInt(chi.URLParam(r, "teacherID"), 10, 64)
	res, err := h.svc.TeacherOverallScore(r.Context(), teacherID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := strconv.ParseInt(chi.URLParam(r, "teacherID"), 10, 64)
	res, err := h.svc.TeacherDashboard(r.Context(), teacherID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) kpiScore(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := strconv.ParseInt(chi.URLParam(r, "teacherID"), 10, 64)
	kpiID, ok := pathID(w, r, "kpiID")
	if !ok {
		return
	}
	res, err := h.svc.KPIScore(r.Context(), teacherID, kpiID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) kpiProgress(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := strconv.ParseInt(chi.URLParam(r, "teacherID"), 10, 64)
	kpiID, ok := pathID(w, r, "kpiID")
	if !ok {
		return
	}
	res, err := h.svc.KPIProgress(r.Context(), teacherID, kpiID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var in app.SubmissionInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.svc.SubmitEvidence(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *handlers) accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Rating int `json:"rating"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.svc.AcceptSubmission(r.Context(), id, in.Rating)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Reason string `json:"reason"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.svc.RejectSubmission(r.Context(), id, in.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) createKPI(w http.ResponseWriter, r *http.Request) {
	var in app.KPIInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.CreateKPI(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) updateKPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in app.KPIUpdate
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.UpdateKPI(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
