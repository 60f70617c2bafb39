package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to a local Ollama instance over its HTTP API. One client is
// shared by the embedder and the candidate scorer.
type Client struct {
	baseURL     string
	rerankModel string
	embedModel  string
	httpClient  *http.Client
}

func New(baseURL, rerankModel, embedModel string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		rerankModel: rerankModel,
		embedModel:  embedModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.rerankModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
