package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	downloads       *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ionia_uploads_total",
		Help: "Total number of upload attempts by outcome",
	}, []string{"outcome"})

	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ionia_upload_bytes_total",
		Help: "Total payload bytes stored by successful uploads",
	})

	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ionia_downloads_total",
		Help: "Total number of download attempts by outcome",
	}, []string{"outcome"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ionia_cache_lookups_total",
		Help: "Cache lookups by kind and result",
	}, []string{"kind", "result"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ionia_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	reg.MustRegister(
		uploads, uploadBytes, downloads, cacheLookups, requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        reg,
		uploads:         uploads,
		uploadBytes:     uploadBytes,
		downloads:       downloads,
		cacheLookups:    cacheLookups,
		requestDuration: requestDuration,
	}
}

func (m *Metrics) RecordUpload(outcome string, bytes int64) {
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK && bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) RecordDownload(outcome string) {
	m.downloads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordRequest(method string, status int, seconds float64) {
	m.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
