package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAwaitSignalFirstSettlementWins(t *testing.T) {
	s := awaitSignal(context.Background(), time.Second, func(resolve func(), reject func(error)) {
		resolve()
		reject(errors.New("late"))
		resolve()
	})
	assert.Equal(t, outcomeReady, s.outcome)
	assert.NoError(t, s.err)
}

func TestAwaitSignalReject(t *testing.T) {
	boom := errors.New("boom")
	s := awaitSignal(context.Background(), time.Second, func(_ func(), reject func(error)) {
		go reject(boom)
	})
	assert.Equal(t, outcomeFailed, s.outcome)
	assert.ErrorIs(t, s.err, boom)
}

func TestAwaitSignalTimeout(t *testing.T) {
	var resolveLater func()
	start := time.Now()
	s := awaitSignal(context.Background(), 30*time.Millisecond, func(resolve func(), _ func(error)) {
		resolveLater = resolve
	})
	assert.Equal(t, outcomeTimedOut, s.outcome)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	assert.NotPanics(t, resolveLater)
}

func TestAwaitSignalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := awaitSignal(ctx, time.Hour, func(func(), func(error)) {})
	assert.Equal(t, outcomeCancelled, s.outcome)
	assert.ErrorIs(t, s.err, context.Canceled)
}

func TestAwaitSignalConcurrentSignals(t *testing.T) {
	for i := 0; i < 50; i++ {
		var wg sync.WaitGroup
		s := awaitSignal(context.Background(), time.Millisecond, func(resolve func(), reject func(error)) {
			wg.Add(2)
			go func() { defer wg.Done(); resolve() }()
			go func() { defer wg.Done(); reject(errors.New("x")) }()
		})
		wg.Wait()
		assert.Contains(t, []waitOutcome{outcomeReady, outcomeFailed, outcomeTimedOut}, s.outcome)
	}
}
