// Package line implements webhook signature verification and the message
// delivery client for the LINE Messaging API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/retry"
)

const (
	defaultReplyURL     = "https://api.line.me/v2/bot/message/reply"
	defaultPushURL      = "https://api.line.me/v2/bot/message/push"
	defaultBroadcastURL = "https://api.line.me/v2/bot/message/broadcast"

	maxErrorBody = 4 << 10
)

// ClientConfig configures a delivery Client. Zero-value URL fields fall
// back to the public API endpoints.
type ClientConfig struct {
	ChannelToken string
	ReplyURL     string
	PushURL      string
	BroadcastURL string
	HTTPClient   *http.Client
	Retry        retry.Policy
}

// Client delivers messages over the three platform primitives: reply, push
// and broadcast. All three are idempotent from the caller's perspective and
// safe to retry; each attempt carries a fresh X-Line-Retry-Key so the
// provider's dedup logic sees retries as distinct deliveries.
type Client struct {
	token        string
	replyURL     string
	pushURL      string
	broadcastURL string
	httpc        *http.Client
	policy       retry.Policy
}

// NewClient builds a delivery client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		token:        cfg.ChannelToken,
		replyURL:     cfg.ReplyURL,
		pushURL:      cfg.PushURL,
		broadcastURL: cfg.BroadcastURL,
		httpc:        cfg.HTTPClient,
		policy:       cfg.Retry,
	}
	if c.replyURL == "" {
		c.replyURL = defaultReplyURL
	}
	if c.pushURL == "" {
		c.pushURL = defaultPushURL
	}
	if c.broadcastURL == "" {
		c.broadcastURL = defaultBroadcastURL
	}
	if c.httpc == nil {
		c.httpc = http.DefaultClient
	}
	return c
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

type broadcastRequest struct {
	Messages []Message `json:"messages"`
}

// Reply answers one specific inbound event through its single-use token.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []Message) error {
	return c.send(ctx, "line: reply", c.replyURL, replyRequest{ReplyToken: replyToken, Messages: msgs})
}

// Push delivers messages to a specific user.
func (c *Client) Push(ctx context.Context, userID string, msgs []Message) error {
	return c.send(ctx, "line: push", c.pushURL, pushRequest{To: userID, Messages: msgs})
}

// Broadcast delivers messages to all subscribed users.
func (c *Client) Broadcast(ctx context.Context, msgs []Message) error {
	return c.send(ctx, "line: broadcast", c.broadcastURL, broadcastRequest{Messages: msgs})
}

func (c *Client) send(ctx context.Context, op, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}
	_, err = retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.post(ctx, op, url, body)
	})
	return err
}

func (c *Client) post(ctx context.Context, op, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Line-Retry-Key", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.Transport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return apierr.FromStatus(op, resp.StatusCode, b)
}
