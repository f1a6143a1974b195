package webhook

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/stories"
)

func TestBroadcastTodayStories(t *testing.T) {
	f := newFixture()
	if err := f.pipeline.BroadcastTodayStories(context.Background()); err != nil {
		t.Fatalf("BroadcastTodayStories() error: %v", err)
	}
	if len(f.deliverer.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(f.deliverer.broadcasts))
	}
	msg := f.deliverer.broadcasts[0][0]
	if msg.Type != "flex" {
		t.Fatalf("broadcast type = %q, want flex", msg.Type)
	}
	carousel := msg.Contents.(map[string]any)
	bubbles := carousel["contents"].([]any)
	if len(bubbles) != 10 {
		t.Errorf("carousel has %d bubbles, want one per story", len(bubbles))
	}
	rendered := fmt.Sprint(bubbles[0])
	if !strings.Contains(rendered, "about Story 1") {
		t.Errorf("first bubble %q missing its generated summary", rendered)
	}
}

func TestBroadcastTodayStories_FeedErrorPropagates(t *testing.T) {
	f := newFixture()
	f.stories.err = apierr.Errorf(apierr.Transport, "stories", "feed down")
	if err := f.pipeline.BroadcastTodayStories(context.Background()); err == nil {
		t.Fatal("BroadcastTodayStories() error = nil, want error")
	}
	if len(f.deliverer.broadcasts) != 0 {
		t.Error("nothing should be broadcast when the feed is down")
	}
}

func TestBroadcastDailyDigest(t *testing.T) {
	f := newFixture()
	f.chat.digest = "ten stories about computers"
	if err := f.pipeline.BroadcastDailyDigest(context.Background()); err != nil {
		t.Fatalf("BroadcastDailyDigest() error: %v", err)
	}
	if len(f.deliverer.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(f.deliverer.broadcasts))
	}
	contents := fmt.Sprint(f.deliverer.broadcasts[0][0].Contents)
	if !strings.Contains(contents, "ten stories about computers") {
		t.Errorf("broadcast contents %q missing digest", contents)
	}
}

func TestFormatStories(t *testing.T) {
	got := formatStories([]stories.Story{
		{Title: "A", Link: "https://example.com/a"},
		{Title: "B", Link: "https://example.com/b"},
	})
	want := "1. A https://example.com/a\n\n2. B https://example.com/b"
	if got != want {
		t.Errorf("formatStories() = %q, want %q", got, want)
	}
}
