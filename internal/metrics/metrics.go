package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teacherkpi"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Processed API requests",
	}, []string{"route", "code"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Handler errors",
	})
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "bot_updates_total", Help: "Processed telegram updates",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
	ScoreComputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "score_computations_total", Help: "Scoring engine invocations",
	}, []string{"kind"})
	InvalidJobTypes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "invalid_weight_job_types", Help: "Job types whose active KPI weights do not sum to 100",
	}, []string{"school_id"})
	SubmissionReviews = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "submission_reviews_total", Help: "Reviewed evidence submissions",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, HandlerErrors, BotUpdates, DBPing,
		ScoreComputations, InvalidJobTypes, SubmissionReviews)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveScore(kind string) { ScoreComputations.WithLabelValues(kind).Inc() }
