package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's prometheus collectors: standard HTTP
// request metrics plus counters for the reminder pipeline.
type Metrics struct {
	registry *prometheus.Registry

	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	ReminderRuns      prometheus.Counter
	RemindersSent     prometheus.Counter
	RemindersFailed   prometheus.Counter
	SubsProcessedLast prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "req_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "url"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "req_dur_ms",
			Help: "The HTTP request latencies in milliseconds.",
		}, []string{"code", "method", "url"}),
		ReminderRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "How many reminder batch runs completed.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "How many reminder mails were sent successfully.",
		}),
		RemindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "How many reminder send attempts failed.",
		}),
		SubsProcessedLast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_last_run_processed",
			Help: "Subscriptions examined by the most recent reminder run.",
		}),
	}
	m.registry.MustRegister(m.reqCnt, m.reqDur, m.ReminderRuns, m.RemindersSent, m.RemindersFailed, m.SubsProcessedLast)
	return m
}

// GinMiddleware records request count and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		code := strconv.Itoa(c.Writer.Status())
		m.reqCnt.WithLabelValues(code, c.Request.Method, url).Inc()
		m.reqDur.WithLabelValues(code, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Handler exposes the registry for a dedicated metrics listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
