// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

// Package model talks to an OpenAI-compatible chat completions API to turn
// a design request into a style response.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Defaults for Config.
const (
	DefaultEndpoint    = "https://api.fireworks.ai/inference/v1"
	DefaultModel       = "accounts/fireworks/models/kimi-k2-5"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 2
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	Endpoint    string        `koanf:"endpoint"`
	Model       string        `koanf:"name"`
	APIKey      string        `koanf:"api_key"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxRetries  uint64        `koanf:"max_retries"`
}

// DefaultConfig returns the configuration without an API key.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBackoff sets the retry base delay.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client calls the chat completions API.
type Client struct {
	cfg         Config
	http        *http.Client
	backoffBase time.Duration
	logger      *slog.Logger
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, ErrConfig("endpoint and API key are required")
	}
	if cfg.Model == "" {
		return nil, ErrConfig("model name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	c := &Client{
		cfg:         cfg,
		http:        &http.Client{Timeout: cfg.Timeout},
		backoffBase: 500 * time.Millisecond,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompts and returns the message content of the first
// choice. The content is untrusted and is returned unparsed.
func (c *Client) Complete(ctx context.Context, system, user string) ([]byte, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, oops.Code(CodeModelError).Wrapf(err, "encode request")
	}

	var data []byte
	start := time.Now()
	err = c.withRetry(ctx, func(ctx context.Context) error {
		var transient bool
		data, transient, err = c.do(ctx, http.MethodPost, "/chat/completions", body)
		if err != nil && transient {
			c.logger.Warn("model API call failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, oops.Code(CodeModelResponse).Wrapf(err, "decode completion")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, oops.Code(CodeModelResponse).Errorf("invalid API response format")
	}

	c.logger.Debug("model completion received",
		"model", c.cfg.Model,
		"duration", time.Since(start),
		"content_bytes", len(resp.Choices[0].Message.Content))
	return []byte(resp.Choices[0].Message.Content), nil
}

// Ping checks that the endpoint accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/models", nil)
	return err
}

func (c *Client) withRetry(ctx context.Context, fn retry.RetryFunc) error {
	backoff := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(c.backoffBase))
	return retry.Do(ctx, backoff, fn)
}

// do performs one request. transient reports failures worth retrying:
// transport errors, 429 and 5xx.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (data []byte, transient bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, reader)
	if err != nil {
		return nil, false, oops.Code(CodeModelError).With("path", path).Wrapf(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, oops.Code(CodeModelError).With("path", path).Wrapf(err, "API call failed")
	}
	defer resp.Body.Close() //nolint:errcheck // read errors surface below

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, oops.Code(CodeModelError).With("path", path).Wrapf(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		transient = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, transient, ErrStatus(resp.StatusCode, strings.TrimSpace(snippet))
	}
	return data, false, nil
}
