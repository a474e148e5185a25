package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_jobs_started_total",
		Help: "Jobs that entered processing.",
	})

	jobsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_finished_total",
		Help: "Jobs that reached a terminal state, by outcome.",
	}, []string{"outcome"})

	clipsRendered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_clips_rendered_total",
		Help: "Clips rendered across all jobs.",
	})

	stageSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_seconds",
		Help:    "Wall time spent per pipeline stage.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	sentimentDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_sentiment_degraded_total",
		Help: "Runs where sentiment analysis fell back to NEUTRO.",
	})
)

func init() {
	register(jobsStarted, jobsFinished, clipsRendered, stageSeconds, sentimentDegraded)
}

func JobStarted() { jobsStarted.Inc() }

func JobCompleted() { jobsFinished.WithLabelValues("completed").Inc() }

func JobFailed() { jobsFinished.WithLabelValues("failed").Inc() }

func ClipRendered() { clipsRendered.Inc() }

func ObserveStage(stage string, d time.Duration) {
	stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func SentimentDegraded() { sentimentDegraded.Inc() }
