// Package aipipe generates site files through an OpenAI-compatible chat
// completions endpoint.
package aipipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/builders"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

// ErrNotJSON reports that the model replied with something other than a JSON
// object of file contents.
var ErrNotJSON = errors.New("aipipe: response is not a JSON file map")

// HTTPDoer lets tests substitute the HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds aipipe client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTPClient  HTTPDoer
}

// Defaults fills missing optional fields.
func (c *Config) Defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.aipipe.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return Err("api_key is required")
	}
	return nil
}

// Err wraps configuration/validation errors for clarity.
type Err string

func (e Err) Error() string {
	return fmt.Sprintf("aipipe: %s", string(e))
}

// Client talks to the completions endpoint.
type Client struct {
	cfg Config
}

// New builds a Client from Config.
func New(cfg Config) (*Client, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg}, nil
}

func (c *Client) Build(ctx context.Context, req core.BuildRequest) (core.Bundle, error) {
	content, err := c.complete(ctx, systemBuild, buildPrompt(req))
	if err != nil {
		return core.Bundle{}, err
	}
	files, err := parseBundle(content)
	if err != nil {
		return core.Bundle{}, err
	}
	return core.Bundle{Files: files}, nil
}

func (c *Client) Modify(ctx context.Context, req core.ModifyRequest) (core.Bundle, error) {
	content, err := c.complete(ctx, systemModify, modifyPrompt(req))
	if err != nil {
		return core.Bundle{}, err
	}
	files, err := parseBundle(content)
	if err != nil {
		return core.Bundle{}, err
	}
	return core.Bundle{Files: files}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("aipipe: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := c.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("aipipe: completion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("aipipe: completion failed: %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("aipipe: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", Err("response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseBundle interprets model output as a filename-to-content JSON object.
// Markdown code fences around the object are tolerated.
func parseBundle(content string) (map[string]string, error) {
	trimmed := stripFences(content)
	var files map[string]string
	if err := json.Unmarshal([]byte(trimmed), &files); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return files, nil
}

func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if idx := strings.Index(t, "\n"); idx >= 0 {
		t = t[idx+1:]
	}
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
	return t
}

func init() {
	builders.MustRegister(config.BuilderAipipe, func(cfg config.BuilderConfig) (core.Builder, error) {
		return New(Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
	})
}
