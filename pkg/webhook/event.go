package webhook

// webhookRequest is the platform webhook payload.
type webhookRequest struct {
	Events []Event `json:"events"`
}

// Event is one platform-delivered notification. Only the fields the
// pipeline routes on are decoded.
type Event struct {
	Type       string        `json:"type"`
	ReplyToken string        `json:"replyToken"`
	Source     EventSource   `json:"source"`
	Message    *EventMessage `json:"message"`
}

// EventSource identifies where the event came from.
type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// EventMessage is the message attached to a message event.
type EventMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// text returns the message text, or "" when the event carries none.
func (e Event) text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Text
}
