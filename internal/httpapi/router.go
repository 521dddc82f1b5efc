package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-kpi/internal/app"
	"github.com/Spok95/teacher-kpi/internal/db"
	"github.com/Spok95/teacher-kpi/internal/metrics"
	"github.com/Spok95/teacher-kpi/internal/models"
	"github.com/Spok95/teacher-kpi/internal/scoring"
)

// Service is what the API needs from app.Service.
type Service interface {
	AuthorizeTeacher(ctx context.Context, teacherID int64) error

	WeightValidation(ctx context.Context, jobTypeID, schoolID int64) (scoring.WeightValidation, error)
	SchoolWeightWarnings(ctx context.Context, schoolID int64) ([]scoring.WeightValidation, error)
	ListTeachers(ctx context.Context, schoolID int64, req app.PageRequest) (app.Page[scoring.TeacherScore], error)
	RankTeachers(ctx context.Context, schoolID int64, order scoring.Order, limit int) ([]scoring.TeacherScore, error)
	SchoolReport(ctx context.Context, schoolID int64) (*app.SchoolReport, error)

	TeacherOverallScore(ctx context.Context, teacherID int64) (scoring.OverallScore, error)
	TeacherDashboard(ctx context.Context, teacherID int64) (*app.Dashboard, error)
	KPIScore(ctx context.Context, teacherID, kpiID int64) (scoring.KPIScore, error)
	KPIProgress(ctx context.Context, teacherID, kpiID int64) (scoring.Progress, error)

	SubmitEvidence(ctx context.Context, in app.SubmissionInput) (*models.EvidenceSubmission, error)
	AcceptSubmission(ctx context.Context, id int64, rating int) (*models.EvidenceSubmission, error)
	RejectSubmission(ctx context.Context, id int64, reason string) (*models.EvidenceSubmission, error)
	ListSchoolSubmissions(ctx context.Context, schoolID int64, status models.SubmissionStatus, req app.PageRequest) (app.Page[models.EvidenceSubmission], error)

	CreateKPI(ctx context.Context, in app.KPIInput) (*app.KPIChange, error)
	UpdateKPI(ctx context.Context, id int64, in app.KPIUpdate) (*app.KPIChange, error)
}

type Deps struct {
	Service     Service
	Auth        *Authenticator
	Ping        func(ctx context.Context) error
	Log         *zap.Logger
	CORSOrigins []string
	Now         func() time.Time
}

type handlers struct {
	svc Service
	log *zap.Logger
	now func() time.Time
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{svc: d.Service, log: d.Log, now: d.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, recoverer(d.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(instrument)

	r.Get("/healthz", healthz(d.Ping))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(d.Auth.Middleware)

		api.Route("/schools/{schoolID}", func(sr chi.Router) {
			sr.Use(requireRole(models.Admin, models.SchoolManager), schoolAccess)
			sr.Get("/job-types/{jobTypeID}/weights", h.weights)
			sr.Get("/weight-warnings", h.weightWarnings)
			sr.Get("/teachers", h.teachers)
			sr.Get("/ranking", h.ranking)
			sr.Get("/report.xlsx", h.report)
			sr.Get("/submissions", h.schoolSubmissions)
		})

		api.Route("/teachers/{teacherID}", func(tr chi.Router) {
			tr.Use(h.teacherAccess)
			tr.Get("/score", h.teacherScore)
			tr.Get("/dashboard", h.dashboard)
			tr.Get("/kpis/{kpiID}/score", h.kpiScore)
			tr.Get("/kpis/{kpiID}/progress", h.kpiProgress)
		})

		api.With(requireRole(models.Teacher)).Post("/submissions", h.submit)
		api.With(requireRole(models.SchoolManager)).Post("/submissions/{id}/accept", h.accept)
		api.With(requireRole(models.SchoolManager)).Post("/submissions/{id}/reject", h.reject)

		api.With(requireRole(models.Admin, models.SchoolManager)).Post("/kpis", h.createKPI)
		api.With(requireRole(models.Admin, models.SchoolManager)).Patch("/kpis/{id}", h.updateKPI)
	})
	return r
}

// instrument пишет счётчик и латентность по шаблону маршрута, а не по сырому пути.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(t0).Seconds())
	})
}

func healthz(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
			defer cancel()
			if err := ping(ctx); err != nil {
				http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}

// PingDB adapts db.Ping for Deps.Ping.
func PingDB(database db.Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error { return db.Ping(ctx, database) }
}

func schoolAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "schoolID")
		if !ok {
			return
		}
		if err := app.AuthorizeSchool(r.Context(), id); err != nil {
			writeMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handlers) teacherAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "teacherID")
		if !ok {
			return
		}
		if err := h.svc.AuthorizeTeacher(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
