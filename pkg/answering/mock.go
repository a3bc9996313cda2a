package answering

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// MockProvider simulates the remote model for local development: a short
// randomized delay, then a canned answer that echoes the question.
type MockProvider struct {
	rng *rand.Rand
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *MockProvider) Answer(ctx context.Context, question, documentText string) (string, error) {
	delay := time.Duration(600+p.rng.Intn(1000)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return fmt.Sprintf(
		"Mock answer for \"%s\"\n\nThis is a simulated response (delay %dms, document length %d chars).",
		question,
		delay.Milliseconds(),
		len(documentText),
	), nil
}
