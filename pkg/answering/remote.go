package answering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type RemoteAskRequest struct {
	Question     string `json:"question"`
	DocumentText string `json:"documentText"`
}

type RemoteAskResponse struct {
	Answer string `json:"answer"`
}

// RemoteProvider posts to an /api/ask style endpoint that wraps the actual
// model behind a fixed {question, documentText} -> {answer} contract.
type RemoteProvider struct {
	url    string
	client *http.Client
}

func NewRemoteProvider(url string) *RemoteProvider {
	return &RemoteProvider{
		url: url,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *RemoteProvider) Answer(ctx context.Context, question, documentText string) (string, error) {
	payload := RemoteAskRequest{
		Question:     question,
		DocumentText: documentText,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server error: %d - %s", res.StatusCode, string(resBody))
	}

	var askRes RemoteAskResponse
	if err := json.Unmarshal(resBody, &askRes); err != nil {
		return "", err
	}

	return askRes.Answer, nil
}
