// Package metrics defines and registers all custom Prometheus metrics for
// the NeoCDT bank API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register against the default Prometheus registry via promauto at
// package init; the /metrics route is wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "neocdt"

// SolicitudesCreatedTotal counts newly opened solicitudes.
var SolicitudesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solicitudes_created_total",
		Help:      "Total number of CDT solicitudes created.",
	},
)

// TransitionsTotal counts applied state transitions.
// Labels:
//   - from: the prior state token (e.g. "borrador")
//   - to: the new state token (e.g. "aprobada")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of solicitude state transitions, by from/to state.",
	},
	[]string{"from", "to"},
)

// SweepMigratedTotal counts drafts escalated to en_validacion by the sweep.
var SweepMigratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_migrated_total",
		Help:      "Total number of expired drafts moved to en_validacion by the sweep job.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_credentials", "inactive", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
