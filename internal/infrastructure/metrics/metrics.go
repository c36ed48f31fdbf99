// Package metrics exposes Prometheus counters for the listing lifecycle,
// messaging and notification fan-out.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what usecases depend on.
type Recorder interface {
	RecordClaim(outcome string)
	RecordListingTransition(status string)
	RecordMessageSent()
	RecordNotification(notificationType string)
	RecordFanOut(sent, failed int)
	RecordRateLimited(action string)
}

type Collector struct {
	claims        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	messages      prometheus.Counter
	notifications *prometheus.CounterVec
	fanOutSent    prometheus.Counter
	fanOutFailed  prometheus.Counter
	rateLimited   *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_claims_total",
			Help: "Claim attempts by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_listing_transitions_total",
			Help: "Listing status transitions by target status",
		}, []string{"status"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodshare_messages_sent_total",
			Help: "Messages appended to the log",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_notifications_total",
			Help: "Notifications written by type",
		}, []string{"type"}),
		fanOutSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodshare_fanout_sent_total",
			Help: "Fan-out notification writes that succeeded",
		}),
		fanOutFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodshare_fanout_failed_total",
			Help: "Fan-out notification writes that failed",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter",
		}, []string{"action"}),
	}

	reg.MustRegister(
		c.claims,
		c.transitions,
		c.messages,
		c.notifications,
		c.fanOutSent,
		c.fanOutFailed,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordClaim(outcome string) {
	c.claims.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordListingTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordMessageSent() {
	c.messages.Inc()
}

func (c *Collector) RecordNotification(notificationType string) {
	c.notifications.WithLabelValues(notificationType).Inc()
}

func (c *Collector) RecordFanOut(sent, failed int) {
	c.fanOutSent.Add(float64(sent))
	c.fanOutFailed.Add(float64(failed))
}

func (c *Collector) RecordRateLimited(action string) {
	c.rateLimited.WithLabelValues(action).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything. Used when metrics are not wired, e.g. in tests.
type Noop struct{}

func (Noop) RecordClaim(string)             {}
func (Noop) RecordListingTransition(string) {}
func (Noop) RecordMessageSent()             {}
func (Noop) RecordNotification(string)      {}
func (Noop) RecordFanOut(int, int)          {}
func (Noop) RecordRateLimited(string)       {}
