package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// singleFlight lets at most one function run at a time.
type singleFlight struct {
	sem *semaphore.Weighted
}

func newSingleFlight() *singleFlight {
	return &singleFlight{sem: semaphore.NewWeighted(1)}
}

// predictionGate is shared by every PredictionUseCase in the process: the inference
// backend and the scratch directory are single resources.
var predictionGate = newSingleFlight()

// Do runs fn once the gate is free and releases it on every return path.
// Cancelling ctx while waiting abandons the call without running fn.
func (g *singleFlight) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to enter prediction section: %w", err)
	}
	defer g.sem.Release(1)

	return fn()
}
