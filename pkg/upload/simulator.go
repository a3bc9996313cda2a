package upload

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"document-qa-be/pkg/clock"
)

// ErrSimulatedNetwork is returned when the randomized failure check trips.
var ErrSimulatedNetwork = errors.New("simulated network error")

const (
	defaultTick              = 180 * time.Millisecond
	defaultFailureCheckDelay = 600 * time.Millisecond
	defaultCompletionDelay   = 250 * time.Millisecond
	minStep                  = 10
	stepSpread               = 20 // step is minStep + rand(0..stepSpread-1)
)

// Simulator drives one fake upload timeline per Run call: progress advances
// by a random step on every tick until it reaches 100, and a single early
// check can fail the whole operation with FailureRate probability. All
// timing goes through the injected Clock so tests advance time manually.
type Simulator struct {
	Tick              time.Duration
	FailureCheckDelay time.Duration
	CompletionDelay   time.Duration
	FailureRate       float64

	clk clock.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulator(clk clock.Clock, tick time.Duration, failureRate float64) *Simulator {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Simulator{
		Tick:              tick,
		FailureCheckDelay: defaultFailureCheckDelay,
		CompletionDelay:   defaultCompletionDelay,
		FailureRate:       failureRate,
		clk:               clk,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRand pins the random source, for deterministic tests.
func (s *Simulator) SeedRand(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Run blocks until the simulated upload completes or fails. onProgress is
// invoked with each new progress value, ending at 100 on the success path.
// The caller decides what a failure does to its record; Run itself never
// touches state.
func (s *Simulator) Run(ctx context.Context, onProgress func(progress int)) error {
	willFail := s.roll() < s.FailureRate

	var failCh <-chan time.Time
	if willFail {
		failCh = s.clk.After(s.FailureCheckDelay)
	}

	progress := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-failCh:
			return ErrSimulatedNetwork
		case <-s.clk.After(s.Tick):
			progress += s.step()
			if progress >= 100 {
				progress = 100
				onProgress(progress)
				// Small settle delay before reporting completion, so the
				// 100% state is observable while still "uploading".
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-s.clk.After(s.CompletionDelay):
				}
				return nil
			}
			onProgress(progress)
		}
	}
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return minStep + s.rng.Intn(stepSpread)
}
