// Package commands turns free-text user input into exactly one typed
// Command via the AI tool-calling protocol.
package commands

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/chat"
)

// MaxSummaryIndexes is the most stories a single push_summary call may
// request. More than this means the AI violated the tool contract.
const MaxSummaryIndexes = 5

// ErrTooManyIndexes is returned when push_summary arrives with more than
// MaxSummaryIndexes entries. The list is rejected, never truncated, so the
// caller does not guess intent.
var ErrTooManyIndexes = errors.New("push_summary index list exceeds limit")

// fallbackText is pushed when the AI produced neither a usable tool call
// nor any message text.
const fallbackText = "no message available"

// Kind tags the active Command variant.
type Kind int

const (
	KindReplyLatestStory Kind = iota
	KindPushSummary
	KindPushURLSummary
	KindPushPlainMessage
)

func (k Kind) String() string {
	switch k {
	case KindReplyLatestStory:
		return "reply_latest_story"
	case KindPushSummary:
		return "push_summary"
	case KindPushURLSummary:
		return "push_url_summary"
	case KindPushPlainMessage:
		return "push_plain_message"
	}
	return "unknown"
}

// Command is a tagged union; exactly one variant is active, selected by
// Kind. Payload fields of inactive variants are zero.
type Command struct {
	Kind    Kind
	Indexes []int  // KindPushSummary: 1-based story indexes, all positive
	URL     string // KindPushURLSummary
	Text    string // KindPushPlainMessage
}

// ConversationRunner is the AI chat collaborator the resolver depends on.
type ConversationRunner interface {
	RunConversation(ctx context.Context, text string) (*chat.ToolChoice, error)
}

// Resolver resolves free text into a Command.
type Resolver struct {
	chat ConversationRunner
}

// NewResolver builds a resolver on top of a conversation runner.
func NewResolver(runner ConversationRunner) *Resolver {
	return &Resolver{chat: runner}
}

// Resolve sends text to the AI service and decodes the reply. Transport
// failures are the only hard errors besides ErrTooManyIndexes; every other
// malformed reply degrades to a plain-message Command so a natural-language
// answer never aborts delivery.
func (r *Resolver) Resolve(ctx context.Context, text string) (Command, error) {
	choice, err := r.chat.RunConversation(ctx, text)
	if err != nil {
		return Command{}, err
	}
	return Decode(choice)
}

// Decode is the single decode-and-validate step between the AI's untyped
// reply and the rest of the pipeline.
func Decode(choice *chat.ToolChoice) (Command, error) {
	switch choice.Name {
	case "reply_latest_story":
		return Command{Kind: KindReplyLatestStory}, nil

	case "push_summary":
		var args struct {
			Indexes []int `json:"indexes"`
		}
		if err := json.Unmarshal([]byte(choice.Arguments), &args); err != nil {
			return plain(choice), nil
		}
		if len(args.Indexes) > MaxSummaryIndexes {
			return Command{}, ErrTooManyIndexes
		}
		indexes := make([]int, 0, len(args.Indexes))
		for _, i := range args.Indexes {
			if i > 0 {
				indexes = append(indexes, i)
			}
		}
		return Command{Kind: KindPushSummary, Indexes: indexes}, nil

	case "push_url_summary":
		var args struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(choice.Arguments), &args); err != nil || args.URL == "" {
			return plain(choice), nil
		}
		return Command{Kind: KindPushURLSummary, URL: args.URL}, nil

	default:
		// Plain assistant message, or a tool name outside the catalogue.
		return plain(choice), nil
	}
}

func plain(choice *chat.ToolChoice) Command {
	text := choice.Message
	if text == "" {
		text = fallbackText
	}
	return Command{Kind: KindPushPlainMessage, Text: text}
}
