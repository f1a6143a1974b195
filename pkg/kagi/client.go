// Package kagi is a client for the Kagi Universal Summarizer.
package kagi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/retry"
)

const (
	defaultSummarizeURL   = "https://kagi.com/api/v0/summarize"
	defaultEngine         = "cecil"
	defaultTargetLanguage = "EN"

	maxErrorBody = 4 << 10
)

// Config configures a summarizer Client.
type Config struct {
	APIKey         string
	SummarizeURL   string
	Engine         string
	TargetLanguage string
	HTTPClient     *http.Client
	Retry          retry.Policy
}

// Client summarizes web pages by URL.
type Client struct {
	apiKey         string
	summarizeURL   string
	engine         string
	targetLanguage string
	httpc          *http.Client
	policy         retry.Policy
}

// NewClient builds a summarizer client.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:         cfg.APIKey,
		summarizeURL:   cfg.SummarizeURL,
		engine:         cfg.Engine,
		targetLanguage: cfg.TargetLanguage,
		httpc:          cfg.HTTPClient,
		policy:         cfg.Retry,
	}
	if c.summarizeURL == "" {
		c.summarizeURL = defaultSummarizeURL
	}
	if c.engine == "" {
		c.engine = defaultEngine
	}
	if c.targetLanguage == "" {
		c.targetLanguage = defaultTargetLanguage
	}
	if c.httpc == nil {
		c.httpc = http.DefaultClient
	}
	return c
}

type summarizeRequest struct {
	URL            string `json:"url"`
	Engine         string `json:"engine"`
	TargetLanguage string `json:"target_language"`
}

type summarizeResponse struct {
	Data *struct {
		Summary string `json:"summary"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Summarize returns a summary of the page at url.
func (c *Client) Summarize(ctx context.Context, url string) (string, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.summarize(ctx, url)
	})
}

func (c *Client) summarize(ctx context.Context, url string) (string, error) {
	const op = "kagi: summarize"

	body, err := json.Marshal(summarizeRequest{
		URL:            url,
		Engine:         c.engine,
		TargetLanguage: c.targetLanguage,
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.summarizeURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", apierr.Wrap(apierr.Transport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apierr.FromStatus(op, resp.StatusCode, b)
	}

	var parsed summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apierr.Wrap(apierr.Parse, op, err)
	}
	if parsed.Error != "" {
		return "", apierr.Errorf(apierr.Service, op, "API error: %s", parsed.Error)
	}
	if parsed.Data == nil {
		return "", apierr.Errorf(apierr.Service, op, "no summary data in response")
	}
	return parsed.Data.Summary, nil
}
