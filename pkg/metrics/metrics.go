// Package metrics holds the prometheus instruments shared by the order
// service. Everything registers against the default registry and is served
// from the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistryEventsApplied counts user snapshots applied to the event cache.
	RegistryEventsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_events_applied_total",
		Help: "Registry-change events applied to the user snapshot cache.",
	})

	// RegistryEventsDiscarded counts poison messages dropped from the
	// registry-event queue (decode failures, events without a user id).
	RegistryEventsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_events_discarded_total",
		Help: "Malformed registry-change events dead-lettered without retry.",
	})

	// RegistryEventsIgnored counts events of kinds this service does not
	// understand; they are acknowledged and skipped.
	RegistryEventsIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_events_ignored_total",
		Help: "Registry-change events of unrecognized kinds, acked and skipped.",
	})

	// BreakerTransitions counts circuit breaker state changes per edge.
	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_transitions_total",
		Help: "Circuit breaker state transitions.",
	}, []string{"name", "from", "to"})

	// ValidationFallbacks counts admissions served from the cache while the
	// live registry call was failing.
	ValidationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "validation_cache_fallbacks_total",
		Help: "Order validations admitted from the cached user snapshot.",
	})
)
