package updater

import (
	"context"

	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/resilience"
)

// GuardedSource stops polling a release feed that keeps failing. While the
// breaker is open, checks fail fast with resilience.ErrCircuitOpen and the
// banner shows that error.
type GuardedSource struct {
	source  Source
	breaker *resilience.Breaker
}

// NewGuardedSource wraps src with breaker
func NewGuardedSource(src Source, breaker *resilience.Breaker) *GuardedSource {
	return &GuardedSource{source: src, breaker: breaker}
}

// Latest asks the wrapped source through the breaker
func (g *GuardedSource) Latest(ctx context.Context) (Release, error) {
	return resilience.Call(ctx, g.breaker, g.source.Latest)
}

// State reports the breaker state for health output
func (g *GuardedSource) State() resilience.State {
	return g.breaker.State()
}
