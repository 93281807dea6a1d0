// Package metrics holds Prometheus instruments that are used across the
// platform.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AccessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_decisions_total",
			Help: "Access decisions evaluated, by principal kind and outcome.",
		},
		[]string{"principal", "outcome"},
	)

	AccessCheckErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_check_errors_total",
			Help: "Access checks aborted by a store or infrastructure error.",
		})

	PrincipalResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "principal_resolutions_total",
			Help: "Principals resolved from inbound requests, by kind.",
		},
		[]string{"kind"},
	)

	GrantSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grant_sweeps_total",
			Help: "Cumulative number of expired-grant sweep runs.",
		})

	GrantSweepDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grant_sweep_deleted_total",
			Help: "Cumulative number of expired grant rows deleted by the sweeper.",
		})
)

func init() {
	prometheus.MustRegister(
		AccessDecisionsTotal,
		AccessCheckErrorsTotal,
		PrincipalResolutionsTotal,
		GrantSweepsTotal,
		GrantSweepDeletedTotal,
	)
}
