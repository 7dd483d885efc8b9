package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxRequests is the number of trial calls allowed while half-open
	MaxRequests uint32
	// Interval clears the closed-state counts; zero keeps them until a trip
	Interval time.Duration
	// Timeout is how long the breaker stays open before a trial call
	Timeout time.Duration
	// ReadyToTrip decides, after a failure, whether to open
	ReadyToTrip func(counts Counts) bool
	// OnStateChange is called outside the lock whenever the state changes
	OnStateChange func(name string, from State, to State)
	// Now is the clock; nil uses time.Now
	Now func() time.Time
}

// Counts holds the statistics of the current generation
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker stops calling a failing dependency for a while
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State  // Protected by mu
	counts     Counts // Protected by mu
	expiry     time.Time
	generation uint64
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout == 0 {
		settings.Timeout = time.Minute
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		}
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	b := &Breaker{name: name, settings: settings}
	if settings.Interval > 0 {
		b.expiry = settings.Now().Add(settings.Interval)
	}
	return b
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	state, _, change := b.currentState(b.settings.Now())
	b.mu.Unlock()
	b.notify(change)
	return state
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn if the breaker accepts the call. A cancelled ctx is neither a
// success nor a failure of the dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := Call(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn through b and returns its result
func Call[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	generation, err := b.beforeRequest()
	if err != nil {
		return zero, err
	}

	defer func() {
		if e := recover(); e != nil {
			b.afterRequest(generation, outcomeFailure)
			panic(e)
		}
	}()

	result, err := fn(ctx)
	switch {
	case err == nil:
		b.afterRequest(generation, outcomeSuccess)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		b.afterRequest(generation, outcomeIgnored)
	default:
		b.afterRequest(generation, outcomeFailure)
	}
	return result, err
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	outcomeIgnored
)

type stateChange struct {
	from, to State
}

func (b *Breaker) beforeRequest() (uint64, error) {
	b.mu.Lock()
	state, generation, change := b.currentState(b.settings.Now())

	var err error
	switch {
	case state == StateOpen:
		err = ErrCircuitOpen
	case state == StateHalfOpen && b.counts.Requests >= b.settings.MaxRequests:
		err = ErrTooManyRequests
	default:
		b.counts.Requests++
	}
	b.mu.Unlock()

	b.notify(change)
	return generation, err
}

func (b *Breaker) afterRequest(before uint64, result outcome) {
	b.mu.Lock()
	now := b.settings.Now()
	state, generation, change := b.currentState(now)

	if generation == before {
		var next *stateChange
		switch result {
		case outcomeSuccess:
			next = b.onSuccess(state, now)
		case outcomeFailure:
			next = b.onFailure(state, now)
		case outcomeIgnored:
			if b.counts.Requests > 0 {
				b.counts.Requests--
			}
		}
		if next != nil {
			change = next
		}
	}
	b.mu.Unlock()

	b.notify(change)
}

func (b *Breaker) onSuccess(state State, now time.Time) *stateChange {
	b.counts.TotalSuccesses++
	b.counts.ConsecutiveSuccesses++
	b.counts.ConsecutiveFailures = 0
	if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
		return b.setState(StateClosed, now)
	}
	return nil
}

func (b *Breaker) onFailure(state State, now time.Time) *stateChange {
	switch state {
	case StateClosed:
		b.counts.TotalFailures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.settings.ReadyToTrip(b.counts) {
			return b.setState(StateOpen, now)
		}
	case StateHalfOpen:
		return b.setState(StateOpen, now)
	}
	return nil
}

// currentState advances time-based transitions. Must hold b.mu.
func (b *Breaker) currentState(now time.Time) (State, uint64, *stateChange) {
	var change *stateChange
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.newGeneration(now)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			change = b.setState(StateHalfOpen, now)
		}
	}
	return b.state, b.generation, change
}

// setState must hold b.mu; the caller reports the change after unlocking
func (b *Breaker) setState(state State, now time.Time) *stateChange {
	if b.state == state {
		return nil
	}
	prev := b.state
	b.state = state
	b.newGeneration(now)
	return &stateChange{from: prev, to: state}
}

func (b *Breaker) newGeneration(now time.Time) {
	b.generation++
	b.counts = Counts{}

	switch b.state {
	case StateClosed:
		b.expiry = time.Time{}
		if b.settings.Interval > 0 {
			b.expiry = now.Add(b.settings.Interval)
		}
	case StateOpen:
		b.expiry = now.Add(b.settings.Timeout)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}
}

func (b *Breaker) notify(change *stateChange) {
	if change != nil && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, change.from, change.to)
	}
}
