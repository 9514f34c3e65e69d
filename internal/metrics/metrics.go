// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// mounting promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LocaleRouting counts edge decisions by action: redirect, rewrite, skip.
	LocaleRouting = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locale_routing_total",
			Help: "Requests handled by the locale middleware, by action.",
		}, []string{"action"})

	// SessionResolution counts where a resolved session came from:
	// primary, legacy, or none.
	SessionResolution = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resolution_total",
			Help: "Session resolutions by source mechanism.",
		}, []string{"source"})

	// IdentityDegraded counts lookups that failed and were mapped to
	// "absent", by stage: primary, legacy, user, space.
	IdentityDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_degraded_total",
			Help: "Identity lookups that failed and degraded to absent.",
		}, []string{"stage"})

	// GuestMerges counts legacy guest identities folded into real users.
	GuestMerges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "guest_merge_total",
			Help: "Legacy guest identities merged into signed-in users.",
		})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP responses by status class.",
		}, []string{"class"})
)

func init() {
	prometheus.MustRegister(
		LocaleRouting,
		SessionResolution,
		IdentityDegraded,
		GuestMerges,
		HTTPRequests,
	)
}
