// Package internal wires the shared pieces the hnbot subcommands build on.
package internal

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/chat"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/commands"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/config"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/kagi"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/line"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/retry"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/stories"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/webhook"
)

// LoadConfig loads and validates the configuration snapshot. The optional
// config file path comes from HNBOT_CONFIG.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(os.Getenv("HNBOT_CONFIG"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewHTTPClient builds the pooled HTTP client shared by every outbound
// call. It is the only place deadlines live: a connect timeout and an
// overall request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// BuildPipeline assembles the dispatch pipeline and its collaborators from
// the configuration snapshot.
func BuildPipeline(cfg *config.Config, log *slog.Logger) *webhook.Pipeline {
	httpc := NewHTTPClient()
	policy := retry.DefaultPolicy()

	chatClient := chat.NewClient(chat.Config{
		APIKey:         cfg.ChatGPT.APIKey,
		BaseURL:        cfg.ChatGPT.BaseURL,
		Model:          cfg.ChatGPT.Model,
		TranslateModel: cfg.ChatGPT.TranslateModel,
		HTTPClient:     httpc,
	})

	return webhook.NewPipeline(webhook.PipelineConfig{
		ChannelSecret: cfg.Line.ChannelSecret,
		Resolver:      commands.NewResolver(chatClient),
		Chat:          chatClient,
		Stories:       stories.NewSource(cfg.RSS.FeedURL, httpc, policy),
		Summarizer: kagi.NewClient(kagi.Config{
			APIKey:         cfg.Kagi.APIKey,
			SummarizeURL:   cfg.Kagi.SummarizeURL,
			Engine:         cfg.Kagi.Engine,
			TargetLanguage: cfg.Kagi.TargetLanguage,
			HTTPClient:     httpc,
			Retry:          policy,
		}),
		Deliverer: line.NewClient(line.ClientConfig{
			ChannelToken: cfg.Line.ChannelToken,
			ReplyURL:     cfg.Line.ReplyURL,
			PushURL:      cfg.Line.PushURL,
			BroadcastURL: cfg.Line.BroadcastURL,
			HTTPClient:   httpc,
			Retry:        policy,
		}),
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          log,
	})
}
