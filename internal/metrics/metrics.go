// Package metrics holds the Prometheus collectors of the purchase service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PurchasesRecorded counts purchases persisted to the remote store.
	PurchasesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardpurchases",
		Name:      "purchases_recorded_total",
		Help:      "Purchases written to the remote store.",
	})

	// PurchasesRejected counts submissions refused before any write.
	PurchasesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardpurchases",
		Name:      "purchases_rejected_total",
		Help:      "Purchase submissions rejected, by reason.",
	}, []string{"reason"})

	// IntegrationFailures counts failed calls to external collaborators.
	IntegrationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardpurchases",
		Name:      "integration_failures_total",
		Help:      "Failed calls to external collaborators, by collaborator.",
	}, []string{"collaborator"})

	// RateCache counts exchange rate cache lookups.
	RateCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardpurchases",
		Name:      "rate_cache_lookups_total",
		Help:      "Exchange rate cache lookups, by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
