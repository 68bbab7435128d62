package server

import (
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Rejection reasons recorded in surfacescore_rejected_total.
const (
	reasonInProgress = "in_progress"
	reasonInvalidURL = "invalid_url"
)

// Metrics counts server activity and renders it in the Prometheus text
// format. Gauges are read from their sources at scrape time.
type Metrics struct {
	analyses   atomic.Uint64
	cacheHits  atomic.Uint64
	failures   atomic.Uint64
	inProgress atomic.Uint64
	invalidURL atomic.Uint64
	saved      atomic.Uint64

	sessions func() int
	cached   func() int
	clients  func() int
}

// NewMetrics creates Metrics. The gauge sources may be nil.
func NewMetrics(sessions, cached, clients func() int) *Metrics {
	return &Metrics{sessions: sessions, cached: cached, clients: clients}
}

// ObserveAnalysis records a completed analysis.
func (m *Metrics) ObserveAnalysis(fromCache bool) {
	m.analyses.Add(1)
	if fromCache {
		m.cacheHits.Add(1)
	}
}

// ObserveRejection records a request turned away for reason.
func (m *Metrics) ObserveRejection(reason string) {
	switch reason {
	case reasonInProgress:
		m.inProgress.Add(1)
	case reasonInvalidURL:
		m.invalidURL.Add(1)
	}
}

// ObserveFailure records an analysis that did not complete.
func (m *Metrics) ObserveFailure() { m.failures.Add(1) }

// ObserveSaved records an analysis written to the history database.
func (m *Metrics) ObserveSaved() { m.saved.Add(1) }

// Families returns the current metric values.
func (m *Metrics) Families() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		counterFamily("surfacescore_analyses_total", "Completed analyses, including cache hits.", m.analyses.Load()),
		counterFamily("surfacescore_cache_hits_total", "Analyses served from a session cache.", m.cacheHits.Load()),
		counterFamily("surfacescore_failures_total", "Analyses that failed or were cancelled.", m.failures.Load()),
		{
			Name: proto.String("surfacescore_rejected_total"),
			Help: proto.String("Analyze requests rejected before running."),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{
				labeledCounter("reason", reasonInProgress, m.inProgress.Load()),
				labeledCounter("reason", reasonInvalidURL, m.invalidURL.Load()),
			},
		},
		counterFamily("surfacescore_history_saved_total", "Analyses stored in the history database.", m.saved.Load()),
		gaugeFamily("surfacescore_sessions", "Sessions currently held.", m.sessions),
		gaugeFamily("surfacescore_cached_analyses", "Analyses cached across sessions.", m.cached),
		gaugeFamily("surfacescore_progress_clients", "Connected progress WebSocket clients.", m.clients),
	}
}

// ServeHTTP writes the metrics in the Prometheus text format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	for _, mf := range m.Families() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return
		}
	}
}

func counterFamily(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(float64(v))}},
		},
	}
}

func labeledCounter(label, value string, v uint64) *dto.Metric {
	return &dto.Metric{
		Label:   []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(value)}},
		Counter: &dto.Counter{Value: proto.Float64(float64(v))},
	}
}

func gaugeFamily(name, help string, source func() int) *dto.MetricFamily {
	var v float64
	if source != nil {
		v = float64(source())
	}
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(v)}},
		},
	}
}
