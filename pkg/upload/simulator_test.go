package upload

import (
	"context"
	"testing"
	"time"

	"document-qa-be/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSimulator(failureRate float64) *Simulator {
	s := NewSimulator(clock.New(), time.Millisecond, failureRate)
	s.FailureCheckDelay = time.Millisecond
	s.CompletionDelay = time.Millisecond
	return s
}

func TestRunReportsIncreasingProgressUpToHundred(t *testing.T) {
	s := fastSimulator(0)
	s.SeedRand(1)

	var seen []int
	err := s.Run(context.Background(), func(progress int) {
		seen = append(seen, progress)
	})
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100, seen[len(seen)-1])
	for _, p := range seen[:len(seen)-1] {
		assert.Less(t, p, 100)
	}
}

func TestRunFailsWhenRateIsCertain(t *testing.T) {
	s := fastSimulator(1)
	// The failure check must beat the first tick.
	s.Tick = 20 * time.Millisecond

	var seen []int
	err := s.Run(context.Background(), func(progress int) {
		seen = append(seen, progress)
	})
	require.ErrorIs(t, err, ErrSimulatedNetwork)

	// A failed run never reaches completion.
	for _, p := range seen {
		assert.Less(t, p, 100)
	}
}

func TestRunNeverFailsWhenRateIsZero(t *testing.T) {
	s := fastSimulator(0)

	for i := 0; i < 5; i++ {
		err := s.Run(context.Background(), func(int) {})
		require.NoError(t, err)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	s := NewSimulator(clock.New(), 50*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, func(int) {
		t.Fatal("progress reported after cancellation")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeededRunsAreReproducible(t *testing.T) {
	collect := func() []int {
		s := fastSimulator(0)
		s.SeedRand(42)
		var seen []int
		err := s.Run(context.Background(), func(progress int) {
			seen = append(seen, progress)
		})
		require.NoError(t, err)
		return seen
	}

	assert.Equal(t, collect(), collect())
}
