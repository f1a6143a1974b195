package kagi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/apierr"
	"github.com/wisehuang/daily-hacker-news-line-chatbot/pkg/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3}
}

func TestSummarize(t *testing.T) {
	var (
		gotAuth string
		gotReq  summarizeRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"data":{"summary":"the page explains widgets"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:       "kagi-key",
		SummarizeURL: srv.URL,
		HTTPClient:   srv.Client(),
		Retry:        fastPolicy(),
	})
	got, err := c.Summarize(context.Background(), "https://example.com/widgets")
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != "the page explains widgets" {
		t.Errorf("Summarize() = %q", got)
	}
	if gotAuth != "Bot kagi-key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bot kagi-key")
	}
	if gotReq.URL != "https://example.com/widgets" {
		t.Errorf("request url = %q", gotReq.URL)
	}
	if gotReq.Engine != "cecil" || gotReq.TargetLanguage != "EN" {
		t.Errorf("request = %+v, want default engine and target language", gotReq)
	}
}

func TestSummarize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"unsupported content type"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", SummarizeURL: srv.URL, HTTPClient: srv.Client(), Retry: fastPolicy()})
	_, err := c.Summarize(context.Background(), "https://example.com/video")
	if err == nil {
		t.Fatal("Summarize() error = nil, want error")
	}
	if apierr.KindOf(err) != apierr.Service {
		t.Errorf("error kind = %v, want Service", apierr.KindOf(err))
	}
}

func TestSummarize_MissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", SummarizeURL: srv.URL, HTTPClient: srv.Client(), Retry: fastPolicy()})
	if _, err := c.Summarize(context.Background(), "https://example.com"); err == nil {
		t.Fatal("Summarize() error = nil, want error for empty payload")
	}
}

func TestSummarize_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":{"summary":"recovered"}}`)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", SummarizeURL: srv.URL, HTTPClient: srv.Client(), Retry: fastPolicy()})
	got, err := c.Summarize(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != "recovered" {
		t.Errorf("Summarize() = %q", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
