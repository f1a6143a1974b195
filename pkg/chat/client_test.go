package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
)

func completionResponse(t *testing.T, w http.ResponseWriter, message map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{
			{"index": 0, "message": message, "finish_reason": "stop"},
		},
	})
	if err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "gpt-4o-mini",
		HTTPClient: srv.Client(),
	})
}

func TestRunConversation_ToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tools []json.RawMessage `json:"tools"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Tools) != 3 {
			t.Errorf("request carried %d tools, want 3", len(req.Tools))
		}
		completionResponse(t, w, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{
				{
					"id":   "call-1",
					"type": "function",
					"function": map[string]any{
						"name":      "push_summary",
						"arguments": `{"indexes":[1,2]}`,
					},
				},
			},
		})
	}))
	defer srv.Close()

	choice, err := newTestClient(srv).RunConversation(context.Background(), "summarize 1 and 2")
	if err != nil {
		t.Fatalf("RunConversation() error: %v", err)
	}
	if choice.Name != "push_summary" {
		t.Errorf("Name = %q, want push_summary", choice.Name)
	}
	if choice.Arguments != `{"indexes":[1,2]}` {
		t.Errorf("Arguments = %q", choice.Arguments)
	}
	if choice.Message != "" {
		t.Errorf("Message = %q, want empty", choice.Message)
	}
}

func TestRunConversation_PlainMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		completionResponse(t, w, map[string]any{
			"role":    "assistant",
			"content": "I can fetch today's stories for you.",
		})
	}))
	defer srv.Close()

	choice, err := newTestClient(srv).RunConversation(context.Background(), "what can you do")
	if err != nil {
		t.Fatalf("RunConversation() error: %v", err)
	}
	if choice.Name != "" {
		t.Errorf("Name = %q, want empty", choice.Name)
	}
	if choice.Message != "I can fetch today's stories for you." {
		t.Errorf("Message = %q", choice.Message)
	}
}

func TestRunConversation_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RunConversation(context.Background(), "hi")
	if err == nil {
		t.Fatal("RunConversation() error = nil, want error")
	}
	if !apierr.IsTransient(err) {
		t.Errorf("5xx from the API should classify as transient, got %v", err)
	}
}

func TestRunConversation_ClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RunConversation(context.Background(), "hi")
	if err == nil {
		t.Fatal("RunConversation() error = nil, want error")
	}
	if apierr.IsTransient(err) {
		t.Errorf("4xx from the API should classify as terminal, got %v", err)
	}
}

func TestTranslate_PrefixesLanguageCode(t *testing.T) {
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) > 0 {
			gotContent = req.Messages[0].Content
		}
		completionResponse(t, w, map[string]any{"role": "assistant", "content": "你好"})
	}))
	defer srv.Close()

	out, err := newTestClient(srv).Translate(context.Background(), "hello", "zh-tw")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if out != "你好" {
		t.Errorf("Translate() = %q", out)
	}
	if !strings.Contains(gotContent, "zh-tw: hello") {
		t.Errorf("prompt content = %q, want language code prefix on the text", gotContent)
	}
}

func TestLanguageCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		completionResponse(t, w, map[string]any{"role": "assistant", "content": "ja"})
	}))
	defer srv.Close()

	code, err := newTestClient(srv).LanguageCode(context.Background(), "こんにちは")
	if err != nil {
		t.Fatalf("LanguageCode() error: %v", err)
	}
	if code != "ja" {
		t.Errorf("LanguageCode() = %q, want ja", code)
	}
}

func TestSummarize_UsesConfiguredModel(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		completionResponse(t, w, map[string]any{"role": "assistant", "content": "1. about A"})
	}))
	defer srv.Close()

	out, err := newTestClient(srv).Summarize(context.Background(), "1. Story A https://example.com/a")
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if out == "" {
		t.Error("Summarize() returned empty text")
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotModel)
	}
}

func TestTranslate_UsesTranslateModel(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		models = append(models, req.Model)
		completionResponse(t, w, map[string]any{"role": "assistant", "content": "ok"})
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Model:          "gpt-4o-mini",
		TranslateModel: "gpt-4o",
		HTTPClient:     srv.Client(),
	})
	if _, err := c.Translate(context.Background(), "hello", "fr"); err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if _, err := c.SummarizeStory(context.Background(), "Story A"); err != nil {
		t.Fatalf("SummarizeStory() error: %v", err)
	}
	want := []string{"gpt-4o", "gpt-4o-mini"}
	if fmt.Sprint(models) != fmt.Sprint(want) {
		t.Errorf("models = %v, want %v", models, want)
	}
}
