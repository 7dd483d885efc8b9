/*
Package resilience provides a circuit breaker for calls to flaky
dependencies, such as the release feed polled by the updater.

# Usage

	breaker := resilience.New("release-feed", resilience.Settings{
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker", zap.String("name", name), zap.Stringer("to", to))
		},
	})

	rel, err := resilience.Call(ctx, breaker, source.Latest)

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

A call that fails because its own context was cancelled does not count
against the dependency.
*/
package resilience
