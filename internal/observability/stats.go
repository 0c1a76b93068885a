package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesFetched      uint64            `json:"pages_fetched"`
	ListingsHarvested uint64            `json:"listings_harvested"`
	PlayersExtracted  uint64            `json:"players_extracted"`
	RecordsFiltered   uint64            `json:"records_filtered"`
	ErrorsTotal       uint64            `json:"errors_total"`
	FetchSecondsAvg   float64           `json:"fetch_seconds_avg"`
	FilteredByReason  map[string]uint64 `json:"filtered_by_reason,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	pagesFetched      uint64
	listingsHarvested uint64
	playersExtracted  uint64
	recordsFiltered   uint64
	errorsTotal       uint64

	fetchCount uint64
	fetchNanos uint64

	statsMu           sync.Mutex
	filteredByReason  = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPagesFetched() {
	atomic.AddUint64(&pagesFetched, 1)
	pagesFetchedCounter.Inc()
}

func IncListingsHarvested() {
	atomic.AddUint64(&listingsHarvested, 1)
	listingsCounter.Inc()
}

func IncPlayersExtracted() {
	atomic.AddUint64(&playersExtracted, 1)
	playersCounter.Inc()
}

func IncFiltered(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	atomic.AddUint64(&recordsFiltered, 1)
	statsMu.Lock()
	filteredByReason[reason]++
	statsMu.Unlock()
	filteredCounter.WithLabelValues(reason).Inc()
}

func ObserveFetchDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&fetchCount, 1)
	atomic.AddUint64(&fetchNanos, uint64(seconds*1e9))
	fetchHistogram.Observe(seconds)
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
	errorsCounter.WithLabelValues(errType, component).Inc()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	filteredCopy := copyMap(filteredByReason)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&fetchCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&fetchNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		PagesFetched:      atomic.LoadUint64(&pagesFetched),
		ListingsHarvested: atomic.LoadUint64(&listingsHarvested),
		PlayersExtracted:  atomic.LoadUint64(&playersExtracted),
		RecordsFiltered:   atomic.LoadUint64(&recordsFiltered),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		FetchSecondsAvg:   avg,
		FilteredByReason:  filteredCopy,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
