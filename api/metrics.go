package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// METRICS - Prometheus counters, exposed at /metrics
// =============================================================================

var (
	contractsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_contracts_created_total",
		Help: "Number of contracts created through the API.",
	})

	paymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_payments_recorded_total",
		Help: "Number of payment recordings (manual payments and settlements).",
	})

	schedulesRegenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_schedules_regenerated_total",
		Help: "Number of installment schedule regenerations.",
	})
)
