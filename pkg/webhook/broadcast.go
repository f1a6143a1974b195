package webhook

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/line"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/stories"
)

// BroadcastTodayStories pushes a carousel of every current story, each
// with a generated one-line summary, to all subscribed users. Summaries
// are fetched concurrently; a failed summary degrades to a fallback string
// instead of dropping the broadcast.
func (p *Pipeline) BroadcastTodayStories(ctx context.Context) error {
	all, err := p.stories.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("broadcast stories: %w", err)
	}

	summaries := make([]string, len(all))
	var wg sync.WaitGroup
	for i, story := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := p.chat.SummarizeStory(ctx, story.Title)
			if err != nil {
				p.log.Warn("failed to summarize story for broadcast", "title", story.Title, "error", err)
				summary = summaryFallback
			}
			summaries[i] = summary
		}()
	}
	wg.Wait()

	items := make([]line.CarouselItem, len(all))
	for i, story := range all {
		items[i] = line.CarouselItem{Title: story.Title, Link: story.Link, Summary: summaries[i]}
	}
	if err := p.deliverer.Broadcast(ctx, []line.Message{line.StoriesCarousel(items)}); err != nil {
		return fmt.Errorf("broadcast stories: %w", err)
	}
	return nil
}

// BroadcastDailyDigest generates a single digest summary of all current
// stories and broadcasts it as one bubble.
func (p *Pipeline) BroadcastDailyDigest(ctx context.Context) error {
	all, err := p.stories.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("broadcast digest: %w", err)
	}
	summary, err := p.chat.Summarize(ctx, formatStories(all))
	if err != nil {
		return fmt.Errorf("broadcast digest: %w", err)
	}
	if err := p.deliverer.Broadcast(ctx, []line.Message{line.SummaryBubble(summary)}); err != nil {
		return fmt.Errorf("broadcast digest: %w", err)
	}
	return nil
}

// formatStories renders stories as the numbered list the digest prompt
// expects.
func formatStories(all []stories.Story) string {
	lines := make([]string, len(all))
	for i, story := range all {
		lines[i] = fmt.Sprintf("%d. %s %s", i+1, story.Title, story.Link)
	}
	return strings.Join(lines, "\n\n")
}
