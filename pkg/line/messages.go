package line

// Message is one outbound message in the platform's wire format. Text
// messages carry Text; flex messages carry AltText plus a Contents tree.
type Message struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	AltText  string `json:"altText,omitempty"`
	Contents any    `json:"contents,omitempty"`
}

// CarouselItem pairs a story with its generated summary for the daily
// broadcast carousel.
type CarouselItem struct {
	Title   string
	Link    string
	Summary string
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// SummaryBubble wraps a summary in a flex bubble.
func SummaryBubble(summary string) Message {
	return Message{
		Type:     "flex",
		AltText:  "Story summary",
		Contents: bubble("Summary", summary, ""),
	}
}

// StoriesCarousel builds a flex carousel with one bubble per story.
func StoriesCarousel(items []CarouselItem) Message {
	bubbles := make([]any, 0, len(items))
	for _, it := range items {
		bubbles = append(bubbles, bubble(it.Title, it.Summary, it.Link))
	}
	return Message{
		Type:    "flex",
		AltText: "Today's Hacker News stories",
		Contents: map[string]any{
			"type":     "carousel",
			"contents": bubbles,
		},
	}
}

func bubble(title, body, link string) map[string]any {
	contents := []any{
		map[string]any{
			"type":   "text",
			"text":   title,
			"weight": "bold",
			"size":   "md",
			"wrap":   true,
		},
		map[string]any{
			"type": "text",
			"text": body,
			"size": "sm",
			"wrap": true,
		},
	}
	b := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "sm",
			"contents": contents,
		},
	}
	if link != "" {
		b["footer"] = map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []any{
				map[string]any{
					"type":  "button",
					"style": "link",
					"action": map[string]any{
						"type":  "uri",
						"label": "Read story",
						"uri":   link,
					},
				},
			},
		}
	}
	return b
}
