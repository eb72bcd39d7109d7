package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Completion requests sent to the LLM by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	OracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of completion requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"operation"},
	)

	ImageAnalysisFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_analysis_fallbacks_total",
			Help: "Image analyses replaced with the placeholder description",
		},
		[]string{"role"},
	)

	PriceRangeExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_range_extractions_total",
			Help: "Price range extraction results per assistant reply (hit, carried, miss)",
		},
		[]string{"result"},
	)

	LeadsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_recorded_total",
			Help: "Leads appended to the lead store by interest level",
		},
		[]string{"interest_level"},
	)

	ProjectImagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_images_dropped_total",
			Help: "Project images dropped after an upload or insert failure",
		},
		[]string{"image_type"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled by route and status code",
		},
		[]string{"route", "status"},
	)
)
