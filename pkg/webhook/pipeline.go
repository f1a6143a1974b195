// Package webhook implements the inbound-event dispatch pipeline: verify
// the webhook signature, acknowledge the caller, then resolve and execute
// the user's command on a detached background task.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/commands"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/line"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/stories"
)

// maxBodySize caps a webhook request body (1MB).
const maxBodySize = 1 << 20

// summaryFallback replaces a per-story summary that could not be generated.
const summaryFallback = "summary unavailable"

// CommandResolver resolves user text into one Command.
type CommandResolver interface {
	Resolve(ctx context.Context, text string) (commands.Command, error)
}

// StorySource fetches the current story list, most recent first.
type StorySource interface {
	Fetch(ctx context.Context) ([]stories.Story, error)
}

// ChatService is the completion-backed collaborator for digests and
// translation.
type ChatService interface {
	Summarize(ctx context.Context, storiesText string) (string, error)
	SummarizeStory(ctx context.Context, title string) (string, error)
	Translate(ctx context.Context, text, languageCode string) (string, error)
	LanguageCode(ctx context.Context, text string) (string, error)
}

// URLSummarizer summarizes a web page by its URL.
type URLSummarizer interface {
	Summarize(ctx context.Context, url string) (string, error)
}

// Deliverer is the outbound message delivery collaborator.
type Deliverer interface {
	Reply(ctx context.Context, replyToken string, msgs []line.Message) error
	Push(ctx context.Context, userID string, msgs []line.Message) error
	Broadcast(ctx context.Context, msgs []line.Message) error
}

// Pipeline wires the collaborators together. One Pipeline serves all
// requests; every webhook delivery runs an independent instance of the
// stage sequence with no shared mutable state.
type Pipeline struct {
	secret          []byte
	resolver        CommandResolver
	stories         StorySource
	chat            ChatService
	summarizer      URLSummarizer
	deliverer       Deliverer
	defaultLanguage string
	log             *slog.Logger

	// spawn detaches the background continuation. Overridable so tests can
	// run it synchronously; the detachment is deliberate, see HandleWebhook.
	spawn func(func())
}

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	ChannelSecret   string
	Resolver        CommandResolver
	Stories         StorySource
	Chat            ChatService
	Summarizer      URLSummarizer
	Deliverer       Deliverer
	DefaultLanguage string
	Logger          *slog.Logger
}

// NewPipeline builds a dispatch pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	defaultLanguage := cfg.DefaultLanguage
	if defaultLanguage == "" {
		defaultLanguage = "zh-tw"
	}
	return &Pipeline{
		secret:          []byte(cfg.ChannelSecret),
		resolver:        cfg.Resolver,
		stories:         cfg.Stories,
		chat:            cfg.Chat,
		summarizer:      cfg.Summarizer,
		deliverer:       cfg.Deliverer,
		defaultLanguage: defaultLanguage,
		log:             log,
		spawn:           func(f func()) { go f() },
	}
}

// HandleWebhook authenticates the request and acknowledges it. The
// remaining stages run on a detached task with a fresh context: the
// caller's timeout budget never includes AI round-trips or delivery
// latency, and cancelling the HTTP response does not cancel the
// continuation.
func (p *Pipeline) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse("failed to read body"))
		return
	}

	if err := line.VerifySignature(p.secret, body, r.Header.Get("x-line-signature")); err != nil {
		p.log.Error("signature validation failed", "error", err)
		respondJSON(w, http.StatusUnauthorized, errorResponse("invalid signature"))
		return
	}

	respondJSON(w, http.StatusOK, successResponse())
	p.spawn(func() {
		p.process(context.Background(), body)
	})
}

// process runs the stages after the synchronous acknowledgment. Every exit
// from here on is terminal-but-silent from the webhook caller's viewpoint;
// failures are only logged.
func (p *Pipeline) process(ctx context.Context, body []byte) {
	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		p.log.Error("failed to parse webhook body", "error", err)
		return
	}
	if len(req.Events) == 0 {
		p.log.Warn("no events in webhook payload")
		return
	}

	ev := req.Events[0]
	if ev.Type != "message" {
		p.log.Info("ignoring non-message event", "type", ev.Type)
		return
	}
	text := ev.text()
	if text == "" {
		p.log.Info("message event without text")
		return
	}

	lang, err := p.chat.LanguageCode(ctx, text)
	if err != nil {
		p.log.Error("language detection failed", "error", err)
		lang = "en"
	}
	lang = strings.ToLower(strings.TrimSpace(lang))

	cmd, err := p.resolver.Resolve(ctx, text)
	if err != nil {
		p.log.Error("command resolution failed", "error", err)
		return
	}
	p.log.Info("command resolved", "command", cmd.Kind.String())

	p.execute(ctx, ev, cmd, lang)
}

func (p *Pipeline) execute(ctx context.Context, ev Event, cmd commands.Command, lang string) {
	switch cmd.Kind {
	case commands.KindReplyLatestStory:
		p.executeReplyLatest(ctx, ev)
	case commands.KindPushSummary:
		p.executePushSummary(ctx, ev, cmd.Indexes, lang)
	case commands.KindPushURLSummary:
		p.executePushURLSummary(ctx, ev, cmd.URL, lang)
	case commands.KindPushPlainMessage:
		p.executePushPlain(ctx, ev, cmd.Text)
	}
}

func (p *Pipeline) executeReplyLatest(ctx context.Context, ev Event) {
	if ev.ReplyToken == "" {
		p.log.Error("reply_latest_story requires a reply token")
		return
	}
	all, err := p.stories.Fetch(ctx)
	if err != nil {
		p.log.Error("failed to fetch stories", "error", err)
		return
	}
	latest := all[0]
	msg := line.TextMessage(fmt.Sprintf("Latest story: %s\n%s", latest.Title, latest.Link))
	if err := p.deliverer.Reply(ctx, ev.ReplyToken, []line.Message{msg}); err != nil {
		p.log.Error("failed to reply with latest story", "error", err)
	}
}

// executePushSummary summarizes each selected story's link and pushes the
// aggregated result as one delivery, one bubble per story, in index order.
// Indexes outside [1, len(stories)] are skipped, not fatal.
func (p *Pipeline) executePushSummary(ctx context.Context, ev Event, indexes []int, lang string) {
	userID := ev.Source.UserID
	if userID == "" {
		p.log.Error("push_summary requires a user id")
		return
	}
	all, err := p.stories.Fetch(ctx)
	if err != nil {
		p.log.Error("failed to fetch stories", "error", err)
		return
	}

	var selected []stories.Story
	for _, i := range indexes {
		if i >= 1 && i <= len(all) {
			selected = append(selected, all[i-1])
		}
	}
	if len(selected) == 0 {
		p.log.Error("no valid story indexes", "indexes", indexes, "stories", len(all))
		return
	}

	msgs := make([]line.Message, 0, len(selected))
	for _, story := range selected {
		summary, err := p.summarizer.Summarize(ctx, story.Link)
		if err != nil {
			p.log.Warn("failed to summarize story", "link", story.Link, "error", err)
			summary = summaryFallback
		} else {
			summary = p.maybeTranslate(ctx, summary, lang)
		}
		msgs = append(msgs, line.SummaryBubble(story.Title+"\n"+summary))
	}

	if err := p.deliverer.Push(ctx, userID, msgs); err != nil {
		p.log.Error("failed to push story summaries", "error", err)
	}
}

func (p *Pipeline) executePushURLSummary(ctx context.Context, ev Event, rawURL, lang string) {
	userID := ev.Source.UserID
	if userID == "" {
		p.log.Error("push_url_summary requires a user id")
		return
	}
	if !IsValidURL(rawURL) {
		p.log.Error("rejecting invalid url", "url", rawURL)
		return
	}
	summary, err := p.summarizer.Summarize(ctx, rawURL)
	if err != nil {
		p.log.Error("failed to summarize url", "error", err)
		return
	}
	summary = p.maybeTranslate(ctx, summary, lang)
	if err := p.deliverer.Push(ctx, userID, []line.Message{line.SummaryBubble(summary)}); err != nil {
		p.log.Error("failed to push url summary", "error", err)
	}
}

func (p *Pipeline) executePushPlain(ctx context.Context, ev Event, text string) {
	userID := ev.Source.UserID
	if userID == "" {
		p.log.Error("push message requires a user id")
		return
	}
	if err := p.deliverer.Push(ctx, userID, []line.Message{line.TextMessage(text)}); err != nil {
		p.log.Error("failed to push message", "error", err)
	}
}

// maybeTranslate translates summaries for users whose detected language is
// neither English nor the bot's default. A failed translation keeps the
// untranslated text rather than dropping the delivery.
func (p *Pipeline) maybeTranslate(ctx context.Context, text, lang string) string {
	if lang == "" || lang == "en" || lang == p.defaultLanguage {
		return text
	}
	translated, err := p.chat.Translate(ctx, text, lang)
	if err != nil {
		p.log.Warn("translation failed, keeping original", "lang", lang, "error", err)
		return text
	}
	return translated
}

// IsValidURL reports whether raw is an absolute http or https URL with a
// host. Anything else is rejected before any downstream service is
// contacted.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
