// Package metrics exposes authentication and session counters to Prometheus.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services report to.
type Recorder interface {
	RecordLogin(outcome string)
	RecordAuthRejection(reason string)
	RecordSessionCreated()
	RecordSessionsSwept(count int64)
	RecordReportGenerated()
}

type Collector struct {
	logins          *prometheus.CounterVec
	authRejections  *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	sessionsSwept   prometheus.Counter
	reports         prometheus.Counter
}

// NewCollector registers the portal metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_auth_rejections_total",
			Help: "Requests rejected by the auth gate, by reason.",
		}, []string{"reason"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_sessions_created_total",
			Help: "Session rows created at login.",
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_sessions_swept_total",
			Help: "Expired session rows deleted by the sweeper.",
		}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_reports_generated_total",
			Help: "Medical-record reports rendered.",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.authRejections,
		c.sessionsCreated,
		c.sessionsSwept,
		c.reports,
	)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAuthRejection(reason string) {
	c.authRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordSessionCreated() {
	c.sessionsCreated.Inc()
}

func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

func (c *Collector) RecordReportGenerated() {
	c.reports.Inc()
}

// Handler serves the Prometheus exposition format on a fiber route.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordLogin(string)         {}
func (Nop) RecordAuthRejection(string) {}
func (Nop) RecordSessionCreated()      {}
func (Nop) RecordSessionsSwept(int64)  {}
func (Nop) RecordReportGenerated()     {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
