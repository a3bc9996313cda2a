package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(nopLogger{})
	go hub.Run()

	a := &Client{Hub: hub, Send: make(chan []byte, 8)}
	b := &Client{Hub: hub, Send: make(chan []byte, 8)}
	hub.register <- a
	hub.register <- b

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 5*time.Millisecond)

	hub.Broadcast(map[string]string{"type": "STORAGE_CLEARED"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var msg map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "event", msg["type"])
		case <-time.After(time.Second):
			t.Fatal("client did not receive the broadcast")
		}
	}
}

func TestHubDropsStalledClient(t *testing.T) {
	hub := NewHub(nopLogger{})
	go hub.Run()

	stalled := &Client{Hub: hub, Send: make(chan []byte)}
	hub.register <- stalled

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Nothing reads from the unbuffered channel, so the send falls through
	// to the drop path.
	hub.Broadcast(map[string]string{"type": "QA_ANSWER_READY"})

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-stalled.Send
	assert.False(t, open)
}
