/*
Package resilience provides the circuit breaker used by the shell control client.

A breaker counts consecutive failures of calls made through Execute. Once the
count reaches Threshold the circuit opens and calls fail fast with
ErrCircuitOpen. After Cooldown the circuit goes half-open and admits up to
Probes calls; if all of them succeed it closes, and any failure reopens it.

	breaker := resilience.New("homeshell", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	snap, err := resilience.Execute(breaker, func() (*Snapshot, error) {
		return fetch(ctx)
	})

States:

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[Probes successes]-> Closed
	                                  ^                     |
	                                  +------[failure]------+
*/
package resilience
