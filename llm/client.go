// Package llm is the narrow boundary to the model-completion capability.
// Stages hand it a structured request and get raw text back; parsing that
// text is the caller's problem (see extract.go).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// Client is the model-completion capability consumed by the pipeline stages.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one structured completion input.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Config holds the explicit model configuration. No process-wide state:
// everything the client needs is passed in at construction.
type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// GroqClient talks to an OpenAI-compatible chat-completions endpoint.
type GroqClient struct {
	cfg        Config
	httpClient *http.Client
	sleep      func(time.Duration) // swapped out in tests
}

// NewGroqClient creates a completion client. The API key falls back to
// GROQ_API_KEY when not set explicitly.
func NewGroqClient(cfg Config) *GroqClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &GroqClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      time.Sleep,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
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

// Complete sends one chat completion and returns the raw text content.
// Transport errors are retried with exponential backoff up to MaxAttempts;
// exhausted retries surface as an error the orchestrator treats as a stage
// failure.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("llm: API key not set (GROQ_API_KEY)")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	var lastErr error
	delay := c.cfg.BaseDelay
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[llm] attempt %d/%d after error: %v", attempt, c.cfg.MaxAttempts, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			c.sleep(delay)
			delay *= 2
		}
		content, err := c.doRequest(ctx, bodyBytes)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("llm: completion failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

func (c *GroqClient) doRequest(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, truncate(string(respBytes), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
