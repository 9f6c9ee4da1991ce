package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultGenerateURL = "http://localhost:11434/api/generate"
	defaultModel       = "gemma3:4b"

	// requestTimeout bounds the single generation call. The client
	// never retries: a timeout degrades to an empty extraction and the
	// user retries the turn instead.
	requestTimeout = 30 * time.Second
)

// OllamaClient calls a local Ollama-compatible generation endpoint.
type OllamaClient struct {
	generateURL string
	model       string
	httpClient  *http.Client
}

// NewOllamaClient constructs a client for the given endpoint and model.
// Empty arguments fall back to the local defaults.
func NewOllamaClient(generateURL, model string) *OllamaClient {
	if generateURL == "" {
		generateURL = defaultGenerateURL
	}
	if model == "" {
		model = defaultModel
	}
	return &OllamaClient{
		generateURL: generateURL,
		model:       model,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one non-streaming completion request and returns the
// response text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{Model: c.model, Prompt: prompt, Stream: false}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.generateURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API error: %s", resp.Status)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Response, nil
}
