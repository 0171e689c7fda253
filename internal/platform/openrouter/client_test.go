package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(nil, Config{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(nil, Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Model() != DefaultModel {
		t.Fatalf("model=%q", c.Model())
	}
	if got := c.(*client).baseURL; got != DefaultBaseURL {
		t.Fatalf("baseURL=%q", got)
	}
}

func TestChatCompletionSendsRequest(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization=%q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://app.example" {
			t.Errorf("referer=%q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Course Guide" {
			t.Errorf("title=%q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"roadmap\":[]}"}}]}`))
	}))
	defer srv.Close()

	c, err := New(nil, Config{
		BaseURL: srv.URL + "/api/v1/",
		APIKey:  "secret",
		Model:   "test/model",
		Timeout: 5 * time.Second,
		Referer: "https://app.example",
		Title:   "Course Guide",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.ChatCompletion(context.Background(), []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "goal"},
	})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if out != `{"roadmap":[]}` {
		t.Fatalf("content=%q", out)
	}
	if gotReq.Model != "test/model" || len(gotReq.Messages) != 2 {
		t.Fatalf("request=%+v", gotReq)
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "goal" {
		t.Fatalf("messages=%+v", gotReq.Messages)
	}
}

func TestChatCompletionNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := New(nil, Config{BaseURL: srv.URL, APIKey: "k"})
	out, err := c.ChatCompletion(context.Background(), nil)
	if err != nil || out != "" {
		t.Fatalf("want empty content, got %q err=%v", out, err)
	}
}

func TestChatCompletionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"provider down"}`))
	}))
	defer srv.Close()

	c, _ := New(nil, Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.ChatCompletion(context.Background(), nil)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusBadGateway || ue.Body != `{"error":"provider down"}` {
		t.Fatalf("unexpected error %+v", ue)
	}
}

func TestChatCompletionDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, _ := New(nil, Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.ChatCompletion(context.Background(), nil)
	var ue *UpstreamError
	if err == nil || errors.As(err, &ue) {
		t.Fatalf("want decode error, got %v", err)
	}
}

func TestChatCompletionHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	// Unblock the handler before Close waits on it.
	defer close(release)

	c, _ := New(nil, Config{BaseURL: srv.URL, APIKey: "k"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.ChatCompletion(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}
