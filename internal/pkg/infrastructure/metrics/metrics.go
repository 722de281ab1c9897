package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Summary is the part of the dashboard state that is exported as gauges.
type Summary struct {
	CamerasOnline        int
	CamerasTotal         int
	AlertsUnacknowledged int
	AlertsTotal          int
	Anomalies            int
	Sessions             int
	PeopleCounted        int
	Counting             bool
}

type SummaryFunc func() Summary

var (
	camerasDesc = prometheus.NewDesc(
		"security_dashboard_cameras", "Camera feeds grouped by state.", []string{"state"}, nil,
	)
	alertsDesc = prometheus.NewDesc(
		"security_dashboard_alerts", "Security alerts grouped by state.", []string{"state"}, nil,
	)
	anomaliesDesc = prometheus.NewDesc(
		"security_dashboard_anomalies", "Anomalous events in the timeline.", nil, nil,
	)
	sessionsDesc = prometheus.NewDesc(
		"security_dashboard_count_sessions", "Completed people counting sessions.", nil, nil,
	)
	peopleDesc = prometheus.NewDesc(
		"security_dashboard_people_counted", "People counted over all completed sessions.", nil, nil,
	)
	countingDesc = prometheus.NewDesc(
		"security_dashboard_counting", "Whether a counting session is in progress (1) or not (0).", nil, nil,
	)
)

type collector struct {
	mu     sync.Mutex
	source SummaryFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- camerasDesc
	ch <- alertsDesc
	ch <- anomaliesDesc
	ch <- sessionsDesc
	ch <- peopleDesc
	ch <- countingDesc
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.source()

	ch <- prometheus.MustNewConstMetric(camerasDesc, prometheus.GaugeValue, float64(s.CamerasOnline), "online")
	ch <- prometheus.MustNewConstMetric(camerasDesc, prometheus.GaugeValue, float64(s.CamerasTotal-s.CamerasOnline), "offline")

	ch <- prometheus.MustNewConstMetric(alertsDesc, prometheus.GaugeValue, float64(s.AlertsUnacknowledged), "unacknowledged")
	ch <- prometheus.MustNewConstMetric(alertsDesc, prometheus.GaugeValue, float64(s.AlertsTotal-s.AlertsUnacknowledged), "acknowledged")

	ch <- prometheus.MustNewConstMetric(anomaliesDesc, prometheus.GaugeValue, float64(s.Anomalies))
	ch <- prometheus.MustNewConstMetric(sessionsDesc, prometheus.GaugeValue, float64(s.Sessions))
	ch <- prometheus.MustNewConstMetric(peopleDesc, prometheus.GaugeValue, float64(s.PeopleCounted))

	counting := 0.0
	if s.Counting {
		counting = 1.0
	}
	ch <- prometheus.MustNewConstMetric(countingDesc, prometheus.GaugeValue, counting)
}

type Metrics struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
}

func New(source SummaryFunc) *Metrics {
	registry := prometheus.NewRegistry()

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "security_dashboard_actions_total",
		Help: "User actions applied to the dashboard.",
	}, []string{"action"})

	registry.MustRegister(actions)
	registry.MustRegister(&collector{source: source})

	return &Metrics{
		registry: registry,
		actions:  actions,
	}
}

// ActionPerformed counts one applied dashboard action.
func (m *Metrics) ActionPerformed(action string) {
	m.actions.WithLabelValues(action).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
