package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finhealth_assessments_total",
			Help: "Assessments run, by scoring strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	AssessmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finhealth_assessment_duration_seconds",
			Help:    "End-to-end assessment duration (extraction + scoring)",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "finhealth_extraction_duration_seconds",
			Help: "Text extraction duration by file format",
		},
		[]string{"format"},
	)

	OCRPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finhealth_ocr_pages_total",
			Help: "Pages or images passed to the OCR engine",
		},
	)

	AnalysesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finhealth_analyses_in_flight",
			Help: "Assessments currently holding the analysis slot",
		},
	)

	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finhealth_history_size",
			Help: "Number of stored assessment reports",
		},
	)
)
