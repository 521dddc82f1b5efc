package jobs

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK    = "ok"
	resultError = "error"
	resultPanic = "panic"
)

// jobRuns: каждый запуск ровно один раз, с исходом ok, error или panic.
var jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teacherkpi",
	Subsystem: "job",
	Name:      "runs_total",
	Help:      "Background job runs by outcome",
}, []string{"job", "result"})

var jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "teacherkpi",
	Subsystem: "job",
	Name:      "duration_seconds",
	Help:      "Background job duration",
	Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
}, []string{"job"})

func init() {
	prometheus.MustRegister(jobRuns, jobDuration)
}
