package invoice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fotoescola",
		Subsystem: "invoice",
		Name:      "issued_total",
		Help:      "Number of invoices issued.",
	})

	issueFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fotoescola",
		Subsystem: "invoice",
		Name:      "issue_failures_total",
		Help:      "Number of rejected invoice issuances, by reason.",
	}, []string{"reason"})

	statusUpdatesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fotoescola",
		Subsystem: "invoice",
		Name:      "status_updates_total",
		Help:      "Number of invoice status updates, by new status.",
	}, []string{"status"})
)

const (
	reasonTxNotFound    = "transaction_not_found"
	reasonNotCompleted  = "transaction_not_completed"
	reasonAlreadyIssued = "already_issued"
	reasonStore         = "store_error"
)
