package usecase

import (
	"context"
	"sync"
	"time"
)

type waitOutcome int

const (
	outcomeReady waitOutcome = iota
	outcomeFailed
	outcomeTimedOut
	outcomeCancelled
)

type settlement struct {
	outcome waitOutcome
	err     error
}

// awaitSignal hands resolve/reject callbacks to start and blocks until the
// first of resolve, reject, the timeout or ctx cancellation. Only the first
// settlement counts; later calls are ignored and never block.
func awaitSignal(ctx context.Context, timeout time.Duration, start func(resolve func(), reject func(error))) settlement {
	done := make(chan settlement, 1)
	var once sync.Once
	settle := func(s settlement) {
		once.Do(func() { done <- s })
	}

	timer := time.AfterFunc(timeout, func() {
		settle(settlement{outcome: outcomeTimedOut})
	})
	defer timer.Stop()

	start(
		func() { settle(settlement{outcome: outcomeReady}) },
		func(err error) { settle(settlement{outcome: outcomeFailed, err: err}) },
	)

	select {
	case s := <-done:
		return s
	case <-ctx.Done():
		settle(settlement{outcome: outcomeCancelled, err: ctx.Err()})
		return <-done
	}
}
