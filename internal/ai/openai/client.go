package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultURL       = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel     = "llama-3.1-8b-instant"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 300
	systemPrompt     = "You are a helpful AI assistant."
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	url        string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

type Options struct {
	URL       string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New builds a client. A missing API key is not an error here; calls fail
// with ai.ErrOracleUnavailable instead so uploads keep working without one.
func New(opts Options, log *zap.Logger) *Client {
	if opts.URL = strings.TrimSpace(opts.URL); opts.URL == "" {
		opts.URL = defaultURL
	}
	if opts.Model = strings.TrimSpace(opts.Model); opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	return &Client{
		url:        opts.URL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      opts.Model,
		maxTokens:  opts.MaxTokens,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger.WithCommonFields(log, "openai", opts.Model),
	}
}

// GenerateContent sends prompt as the user message and returns the first
// choice's content, or the raw response body when that path is absent.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: LLM_API_KEY is not set", ai.ErrOracleUnavailable)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ai.ErrOracleUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ai.ErrOracleUnavailable, err)
	}

	c.logger.Debug("chat completion finished",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", ai.ErrOracleUnavailable, resp.StatusCode, logger.TruncateForLog(string(body), 200))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ai.ErrOracleUnavailable, err)
	}

	if content, ok := firstContent(decoded); ok {
		return content, nil
	}

	c.logger.Warn("chat completion without choices, returning raw body")
	return string(body), nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func firstContent(resp chatResponse) (string, bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}
	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", false
	}
	return *msg.Content, true
}

var _ ai.Generator = (*Client)(nil)
