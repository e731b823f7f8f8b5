package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tune the circuit around an unreliable source.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// OnStateChange, if set, observes every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// BreakerSource stops calling a failing source until it has had time to
// recover. While open, Fetch fails fast with gobreaker.ErrOpenState.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker[*Document]
}

// NewBreakerSource wraps source in a circuit breaker.
func NewBreakerSource(source Source, settings BreakerSettings, logger *slog.Logger) *BreakerSource {
	failures := max(settings.Failures, 1)

	cb := gobreaker.NewCircuitBreaker[*Document](gobreaker.Settings{
		Name:        source.Name(),
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller giving up says nothing about the health of the feed.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed circuit breaker state changed",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
			if settings.OnStateChange != nil {
				settings.OnStateChange(name, from, to)
			}
		},
	})

	return &BreakerSource{source: source, cb: cb}
}

// Name returns the wrapped source name.
func (b *BreakerSource) Name() string {
	return b.source.Name()
}

// Fetch calls the wrapped source through the breaker.
func (b *BreakerSource) Fetch(ctx context.Context) (*Document, error) {
	return b.cb.Execute(func() (*Document, error) {
		return b.source.Fetch(ctx)
	})
}

// State reports the current breaker state.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}
