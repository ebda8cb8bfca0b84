// Package llm talks to an OpenAI-compatible chat API to score topic
// affinities against the training direction catalog.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client is an OpenAI-compatible API client with a TTL model cache.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string

	cacheTTL  time.Duration
	mu        sync.RWMutex
	models    []string
	fetchedAt time.Time
	group     singleflight.Group
}

// NewClient creates a client for the given provider endpoint.
// baseURL is the API root (e.g. "https://api.openai.com/v1").
func NewClient(baseURL, apiKey, model string, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Client{
		http:     &http.Client{Timeout: 120 * time.Second},
		baseURL:  baseURL,
		apiKey:   apiKey,
		model:    model,
		cacheTTL: cacheTTL,
	}
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.model
}

// ListModels returns the provider's model IDs. Results are cached for the
// configured TTL; concurrent refreshes are coalesced via singleflight.
func (c *Client) ListModels() ([]string, error) {
	c.mu.RLock()
	if c.models != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		cached := c.models
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do("models", func() (interface{}, error) {
		models, err := c.fetchModels()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models = models
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *Client) fetchModels() ([]string, error) {
	req, err := http.NewRequest("GET", c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list models: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("list models: decode: %w", err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// chat sends a completion request and returns the first choice's content.
func (c *Client) chat(model, system, user string) (string, error) {
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("chat completion: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if payload.Error != nil {
			return "", fmt.Errorf("chat completion: HTTP %d: %s", resp.StatusCode, payload.Error.Message)
		}
		return "", fmt.Errorf("chat completion: HTTP %d", resp.StatusCode)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", "skillfolio/1.0")
}
