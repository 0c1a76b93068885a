package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roster"

var (
	registry = prometheus.NewRegistry()

	pagesFetchedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Profile pages fetched successfully.",
	})
	listingsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_harvested_total",
		Help:      "Listing pages harvested successfully.",
	})
	playersCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "players_extracted_total",
		Help:      "Player records written to the record sink.",
	})
	filteredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filtered_total",
		Help:      "Candidates routed to the filtered sink.",
	}, []string{"reason"})
	errorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Fetch and extraction errors.",
	}, []string{"type", "component"})
	fetchHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Profile fetch latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	registry.MustRegister(
		pagesFetchedCounter,
		listingsCounter,
		playersCounter,
		filteredCounter,
		errorsCounter,
		fetchHistogram,
	)
}

// Handler exposes the counters in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
