// Package config builds the process-wide configuration snapshot. It is
// loaded once at startup and never mutated afterward.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the read-only configuration snapshot.
type Config struct {
	Host string `json:"host" env:"HNBOT_HOST" envDefault:"0.0.0.0"`
	Port int    `json:"port" env:"HNBOT_PORT" envDefault:"3030"`

	// DefaultLanguage is the bot's own language; summaries are only
	// translated when the user's detected language is neither this nor
	// English.
	DefaultLanguage string `json:"default_language" env:"HNBOT_DEFAULT_LANGUAGE" envDefault:"zh-tw"`

	Line    LineConfig    `json:"line"`
	ChatGPT ChatGPTConfig `json:"chatgpt"`
	Kagi    KagiConfig    `json:"kagi"`
	RSS     RSSConfig     `json:"rss"`
}

// LineConfig holds the messaging channel credentials and endpoints.
type LineConfig struct {
	ChannelSecret string `json:"channel_secret" env:"LINE_CHANNEL_SECRET"`
	ChannelToken  string `json:"channel_token" env:"LINE_CHANNEL_TOKEN"`
	ReplyURL      string `json:"reply_url" env:"LINE_REPLY_URL" envDefault:"https://api.line.me/v2/bot/message/reply"`
	PushURL       string `json:"push_url" env:"LINE_PUSH_URL" envDefault:"https://api.line.me/v2/bot/message/push"`
	BroadcastURL  string `json:"broadcast_url" env:"LINE_BROADCAST_URL" envDefault:"https://api.line.me/v2/bot/message/broadcast"`
}

// ChatGPTConfig holds the AI chat service settings.
type ChatGPTConfig struct {
	APIKey         string `json:"api_key" env:"OPENAI_API_KEY"`
	BaseURL        string `json:"base_url" env:"OPENAI_BASE_URL"`
	Model          string `json:"model" env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	TranslateModel string `json:"translate_model" env:"OPENAI_TRANSLATE_MODEL" envDefault:"gpt-4o-mini"`
}

// KagiConfig holds the URL summarizer settings.
type KagiConfig struct {
	APIKey         string `json:"api_key" env:"KAGI_API_KEY"`
	SummarizeURL   string `json:"summarize_url" env:"KAGI_SUMMARIZE_URL" envDefault:"https://kagi.com/api/v0/summarize"`
	Engine         string `json:"engine" env:"KAGI_ENGINE" envDefault:"cecil"`
	TargetLanguage string `json:"target_language" env:"KAGI_TARGET_LANGUAGE" envDefault:"EN"`
}

// RSSConfig holds the story feed settings.
type RSSConfig struct {
	FeedURL string `json:"feed_url" env:"RSS_FEED_URL" envDefault:"https://www.daemonology.net/hn-daily/index.rss"`
}

// Load builds the snapshot from environment variables, then overlays the
// JSON config file at path when one is given. File values win over
// environment values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks that the credentials the gateway cannot run without are
// present.
func (c *Config) Validate() error {
	var missing []string
	if c.Line.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if c.Line.ChannelToken == "" {
		missing = append(missing, "LINE_CHANNEL_TOKEN")
	}
	if c.ChatGPT.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
