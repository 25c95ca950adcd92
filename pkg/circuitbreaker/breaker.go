package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker guards an outbound Google API client. The Firestore and
// Gmail quotas recover quickly, so the breaker probes again after 30s with a
// couple of half-open requests; it trips only once a real sample of calls
// (not the first hiccup) is mostly failing.
func NewCircuitBreaker(nameof string) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        nameof,
		MaxRequests: 2,
		Interval:    2 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}
