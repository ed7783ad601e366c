package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hiveflow/hiveflow/internal/engine"
)

// HTTPExecutor is an HTTP implementation of engine.ModelExecutor. It posts
// the skill content, resolved inputs and tool allowlist to a completion
// endpoint and returns the reply as the step output.
type HTTPExecutor struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPExecutor(url string, apiKey string, model string) *HTTPExecutor {
	return &HTTPExecutor{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type completionRequest struct {
	Model   string         `json:"model"`
	Content string         `json:"content"`
	Inputs  map[string]any `json:"inputs,omitempty"`
	Tools   []string       `json:"tools,omitempty"`
}

type completionResponse struct {
	Reply any `json:"reply"`
}

// Execute implements engine.ModelExecutor.
func (e *HTTPExecutor) Execute(ctx context.Context, skillContent string, inputs map[string]any, tools []string) (any, error) {
	requestBody, err := json.Marshal(completionRequest{
		Model:   e.model,
		Content: skillContent,
		Inputs:  inputs,
		Tools:   tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/v1/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return completion.Reply, nil
}

var _ engine.ModelExecutor = (*HTTPExecutor)(nil)
