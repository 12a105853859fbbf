package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Job results used as the result label of cron_job_runs_total.
const (
	JobSucceeded = "success"
	JobFailed    = "failure"
)

// CronJobMetrics tracks runs of the cron worker's jobs.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCronJobMetrics registers the cron series on reg. A nil reg yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Cron job executions by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Duration of cron job executions.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration)
	return m
}

// Observe records one finished run of job.
func (c *CronJobMetrics) Observe(job string, took time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	result := JobSucceeded
	if err != nil {
		result = JobFailed
	}
	c.runs.WithLabelValues(job, result).Inc()
	c.duration.WithLabelValues(job).Observe(took.Seconds())
}

// Runs exposes the run counter of job for result.
func (c *CronJobMetrics) Runs(job, result string) prometheus.Counter {
	if c == nil || c.runs == nil {
		return nil
	}
	return c.runs.WithLabelValues(normalizeLabel(job), result)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
