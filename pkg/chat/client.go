// Package chat wraps the OpenAI chat completion API: the tool-calling
// conversation entry point plus the summary, translation and language
// detection prompts built on it.
package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
)

// ToolChoice is the normalized AI reply: either a tool invocation (Name +
// JSON-encoded Arguments) or a plain Message. Exactly one side is set.
type ToolChoice struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Prompts are the instruction prefixes for the non-tool completions.
type Prompts struct {
	Summary       string
	SummarySingle string
	Translate     string
	LanguageCode  string
}

// DefaultPrompts returns the stock prompt set.
func DefaultPrompts() Prompts {
	return Prompts{
		Summary:       "Summarize the following Hacker News stories in a few sentences each, keeping the numbering:",
		SummarySingle: "Summarize what this Hacker News story is likely about in one sentence:",
		Translate:     "Translate the following text into the language identified by the leading ISO 639-1 code, returning only the translation.",
		LanguageCode:  "Reply with only the ISO 639-1 language code (for example en, ja or zh-tw) of the following text:",
	}
}

// Config configures a chat Client.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TranslateModel string
	Prompts        Prompts
	HTTPClient     *http.Client
}

// Client is a thin wrapper over the OpenAI SDK. It is safe for concurrent
// use.
type Client struct {
	oai            openai.Client
	model          string
	translateModel string
	prompts        Prompts
}

// NewClient builds a chat client.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	prompts := cfg.Prompts
	if prompts == (Prompts{}) {
		prompts = DefaultPrompts()
	}
	translateModel := cfg.TranslateModel
	if translateModel == "" {
		translateModel = cfg.Model
	}
	return &Client{
		oai:            openai.NewClient(opts...),
		model:          cfg.Model,
		translateModel: translateModel,
		prompts:        prompts,
	}
}

// RunConversation sends the user text with the tool catalogue and
// tool_choice auto, and normalizes the reply into a ToolChoice. Only
// transport-level failures are returned as errors.
func (c *Client) RunConversation(ctx context.Context, text string) (*ToolChoice, error) {
	const op = "chat: run conversation"

	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
		Tools: toolCatalogue(),
	})
	if err != nil {
		return nil, classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.Errorf(apierr.Service, op, "no choices in response")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		return &ToolChoice{Name: tc.Function.Name, Arguments: tc.Function.Arguments}, nil
	}
	return &ToolChoice{Message: msg.Content}, nil
}

// Summarize generates a digest of the formatted story list.
func (c *Client) Summarize(ctx context.Context, storiesText string) (string, error) {
	return c.complete(ctx, "chat: summarize", c.model, c.prompts.Summary, storiesText, 0.05)
}

// SummarizeStory generates a one-line summary for a single story title.
func (c *Client) SummarizeStory(ctx context.Context, title string) (string, error) {
	return c.complete(ctx, "chat: summarize story", c.model, c.prompts.SummarySingle, title, 0.05)
}

// Translate renders text into the language named by an ISO 639-1 code.
func (c *Client) Translate(ctx context.Context, text, languageCode string) (string, error) {
	return c.complete(ctx, "chat: translate", c.translateModel, c.prompts.Translate, languageCode+": "+text, 0.05)
}

// LanguageCode detects the language of text, returned as an ISO 639-1 code.
func (c *Client) LanguageCode(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, "chat: language code", c.model, c.prompts.LanguageCode, text, 0)
}

func (c *Client) complete(ctx context.Context, op, model, prompt, content string, temperature float64) (string, error) {
	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt + " " + content),
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(2048),
	})
	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", apierr.Errorf(apierr.Service, op, "no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func toolCatalogue() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "reply_latest_story",
			Description: openai.String("Get the latest story from the daily Hacker News feed"),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "push_summary",
			Description: openai.String("Push summaries of selected stories to the user by index, starting from 1. The indexes are passed as an array of integers with a maximum size of 5. If more than 5 stories are requested, return an error instead of calling this function."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"indexes": map[string]any{
						"type":        "array",
						"description": "Indexes of the stories to summarize, at most 5.",
						"items":       map[string]any{"type": "integer"},
					},
				},
				"required": []string{"indexes"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        "push_url_summary",
			Description: openai.String("Summarize the content of a web page URL and push the summary to the user."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "URL of the web page to summarize.",
					},
				},
				"required": []string{"url"},
			},
		}),
	}
}

// classify maps SDK failures onto the error taxonomy: API errors carry
// their HTTP status (5xx transient, 4xx terminal), anything else is a
// network-level transport failure.
func classify(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(op, apiErr.StatusCode, nil)
	}
	return apierr.Wrap(apierr.Transport, op, err)
}
