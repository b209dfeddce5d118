package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastframe_jobs_processed_total",
		Help: "Total number of extraction jobs processed, by final status",
	}, []string{"status"})

	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastframe_extractions_total",
		Help: "Extraction attempts by outcome (success or error kind)",
	}, []string{"outcome"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lastframe_job_processing_duration_seconds",
		Help:    "Duration of extraction pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"stage"})

	FramePixels = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lastframe_frame_pixels",
		Help:    "Pixel count of extracted frames",
		Buckets: prometheus.ExponentialBuckets(320*240, 2, 8),
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lastframe_active_workers",
		Help: "Number of workers currently processing a job",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lastframe_retry_total",
		Help: "Total number of transient-failure retries",
	}, []string{"attempt"})
)
