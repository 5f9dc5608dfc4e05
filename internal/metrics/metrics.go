// Package metrics holds the prometheus collectors of the publish,
// engagement and reclamation paths. A nil *Metrics records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "golive"

// Result label values.
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultStorage    = "storage"
	ResultMetadata   = "metadata"
	ResultError      = "error"
	ResultHit        = "hit"
	ResultMiss       = "miss"
)

type Metrics struct {
	PublishTotal     *prometheus.CounterVec
	PublishDuration  prometheus.Histogram
	UploadBytesTotal *prometheus.CounterVec
	EngagementTotal  *prometheus.CounterVec
	ReclaimTotal     *prometheus.CounterVec
	URLCacheTotal    *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PublishTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_total",
				Help:      "Publish operations by result",
			},
			[]string{"result"},
		),
		PublishDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "publish_duration_seconds",
				Help:      "Publish duration in seconds, including cleanup",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		UploadBytesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Bytes written to the object store",
			},
			[]string{"bucket"},
		),
		EngagementTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engagement_total",
				Help:      "Engagement operations by kind and result",
			},
			[]string{"op", "result"},
		),
		ReclaimTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reclaim_total",
				Help:      "Orphaned blob reclamation attempts by result",
			},
			[]string{"result"},
		),
		URLCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signed_url_cache_total",
				Help:      "Signed URL cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) RecordPublish(result string, seconds float64) {
	if m == nil {
		return
	}
	m.PublishTotal.WithLabelValues(result).Inc()
	m.PublishDuration.Observe(seconds)
}

func (m *Metrics) RecordUpload(bucket string, n int) {
	if m == nil {
		return
	}
	m.UploadBytesTotal.WithLabelValues(bucket).Add(float64(n))
}

func (m *Metrics) RecordEngagement(op, result string) {
	if m == nil {
		return
	}
	m.EngagementTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) RecordReclaim(result string) {
	if m == nil {
		return
	}
	m.ReclaimTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordURLCache(result string) {
	if m == nil {
		return
	}
	m.URLCacheTotal.WithLabelValues(result).Inc()
}
