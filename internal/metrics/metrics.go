// Package metrics declares the prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsStarted counts attend requests by ticket class and the
	// branch taken (free, paid, existing).
	RegistrationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "registrations_started_total",
			Help:      "Registration attempts by ticket class and path",
		},
		[]string{"ticket_class", "path"},
	)

	// TicketsIssued counts newly issued tickets.
	TicketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "issued_total",
			Help:      "Tickets issued by ticket class",
		},
		[]string{"ticket_class"},
	)

	// Reconciliations counts payment callbacks by outcome.
	Reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "reconciliations_total",
			Help:      "Payment success callbacks by outcome",
		},
		[]string{"outcome"},
	)

	// LedgerInconsistencies counts attendees recorded without a ledger entry.
	LedgerInconsistencies = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "ledger_inconsistencies_total",
			Help:      "Attendee writes whose ledger write failed",
		},
	)

	// LedgerRepairs counts ledger entries restored by the repair job.
	LedgerRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickets",
			Name:      "ledger_repairs_total",
			Help:      "Ledger entries regenerated for attendees without a ticket",
		},
	)

	// MessagesProcessed counts handler attempts by topic and handler,
	// successful or not.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "Handler attempts by topic and handler",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed counts handler attempts that returned an error.
	// Retries are counted once per attempt.
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "Failed handler attempts by topic and handler",
		},
		[]string{"topic", "handler"},
	)
)
