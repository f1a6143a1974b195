// Package stories fetches the daily Hacker News feed and extracts the
// story list from it.
package stories

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/retry"
)

// DefaultFeedURL is the daily Hacker News digest feed.
const DefaultFeedURL = "https://www.daemonology.net/hn-daily/index.rss"

// Story is one feed entry, ordered by feed position (index 1 = most
// recent). The JSON names match the public /getLatestStories contract.
type Story struct {
	Title string `json:"story"`
	Link  string `json:"storylink"`
}

// Source fetches and parses the story feed. Stories are re-fetched per
// request; nothing is cached.
type Source struct {
	feedURL string
	httpc   *http.Client
	parser  *gofeed.Parser
	policy  retry.Policy
}

// NewSource builds a story source for feedURL, or DefaultFeedURL if empty.
func NewSource(feedURL string, httpc *http.Client, policy retry.Policy) *Source {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Source{
		feedURL: feedURL,
		httpc:   httpc,
		parser:  gofeed.NewParser(),
		policy:  policy,
	}
}

// Fetch returns the current story list, most recent first.
func (s *Source) Fetch(ctx context.Context) ([]Story, error) {
	return retry.Do(ctx, s.policy, s.fetch)
}

// Latest returns the most recent story.
func (s *Source) Latest(ctx context.Context) (Story, error) {
	all, err := s.Fetch(ctx)
	if err != nil {
		return Story{}, err
	}
	return all[0], nil
}

func (s *Source) fetch(ctx context.Context) ([]Story, error) {
	const op = "stories: fetch feed"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, apierr.Wrap(apierr.Transport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, apierr.FromStatus(op, resp.StatusCode, nil)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, apierr.Wrap(apierr.Parse, op, err)
	}
	if len(feed.Items) == 0 {
		return nil, apierr.Errorf(apierr.Service, op, "feed has no items")
	}

	// The digest packs the whole day into the first item's description:
	// one `<a class="storylink">` anchor per story.
	stories, err := extractStories(feed.Items[0].Description)
	if err != nil {
		return nil, apierr.Wrap(apierr.Parse, op, err)
	}
	if len(stories) == 0 {
		return nil, apierr.Errorf(apierr.Service, op, "no stories found in feed")
	}
	return stories, nil
}

func extractStories(description string) ([]Story, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return nil, fmt.Errorf("parse description HTML: %w", err)
	}
	var stories []Story
	doc.Find("a.storylink").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		stories = append(stories, Story{
			Title: strings.TrimSpace(sel.Text()),
			Link:  href,
		})
	})
	return stories, nil
}
