package answering

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	answer string
	err    error
}

func (p *fixedProvider) Answer(ctx context.Context, question, documentText string) (string, error) {
	return p.answer, p.err
}

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{name: "mock", kind: "mock"},
		{name: "remote", kind: "remote"},
		{name: "gemini", kind: "gemini"},
		{name: "unknown", kind: "llama", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.kind, "key", "http://localhost/ask")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestGatewayPassesAnswerThrough(t *testing.T) {
	g := NewGateway(&fixedProvider{answer: "forty-two"})
	answer, resolved := g.Ask(context.Background(), "q", "doc")
	assert.Equal(t, "forty-two", answer)
	assert.True(t, resolved)
}

func TestGatewayDegradesErrorsIntoAnswerText(t *testing.T) {
	g := NewGateway(&fixedProvider{err: errors.New("model unavailable")})
	answer, resolved := g.Ask(context.Background(), "q", "doc")
	assert.Equal(t, "Error: model unavailable", answer)
	assert.False(t, resolved)
}

func TestRemoteProviderPostsQuestionAndDocument(t *testing.T) {
	var received RemoteAskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(RemoteAskResponse{Answer: "from the server"})
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	answer, err := p.Answer(context.Background(), "what is this?", "the document body")
	require.NoError(t, err)

	assert.Equal(t, "from the server", answer)
	assert.Equal(t, "what is this?", received.Question)
	assert.Equal(t, "the document body", received.DocumentText)
}

func TestRemoteProviderRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	_, err := p.Answer(context.Background(), "q", "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteProviderRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	_, err := p.Answer(context.Background(), "q", "doc")
	assert.Error(t, err)
}

func TestMockProviderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewMockProvider()
	_, err := p.Answer(ctx, "q", "doc")
	assert.ErrorIs(t, err, context.Canceled)
}
