package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func newTestLLMService(backendURL string) *LLMService {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = backendURL + "/v1"
	return &LLMService{
		client: openai.NewClientWithConfig(cfg),
		model:  "test-model",
	}
}

func writeCompletionChunk(w http.ResponseWriter, content string) {
	fmt.Fprintf(w, `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestStreamChatRetriesDispatchThenRelaysOnce(t *testing.T) {
	var requests int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			// First dispatch fails before any output; the service may
			// retry it.
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeCompletionChunk(w, "Hel")
		writeCompletionChunk(w, "lo")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer backend.Close()

	svc := newTestLLMService(backend.URL)

	var fragments []string
	err := svc.StreamChat(context.Background(), "instruction", []ChatTurn{{Role: "user", Content: "hello"}}, func(f string) error {
		fragments = append(fragments, f)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("backend hit %d times, want 2 (one failed dispatch, one retry)", requests)
	}
	// The reply arrives exactly once despite the dispatch retry.
	if len(fragments) != 2 || fragments[0] != "Hel" || fragments[1] != "lo" {
		t.Errorf("relayed fragments = %v, want [Hel lo]", fragments)
	}
}

func TestStreamChatNeverReissuesStartedStream(t *testing.T) {
	var requests int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "text/event-stream")
		writeCompletionChunk(w, "partial")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		// Drop the connection mid-stream without a done marker.
		panic(http.ErrAbortHandler)
	}))
	defer backend.Close()

	svc := newTestLLMService(backend.URL)

	var fragments []string
	err := svc.StreamChat(context.Background(), "instruction", []ChatTurn{{Role: "user", Content: "hello"}}, func(f string) error {
		fragments = append(fragments, f)
		return nil
	})
	if err == nil {
		t.Fatal("expected stream failure")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	// A stream that already produced output is never reissued; a retry
	// here would duplicate fragments.
	if requests != 1 {
		t.Errorf("backend hit %d times, want 1", requests)
	}
	if len(fragments) != 1 || fragments[0] != "partial" {
		t.Errorf("relayed fragments = %v, want [partial]", fragments)
	}
}

func TestStreamChatDispatchAttemptsBounded(t *testing.T) {
	var requests int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer backend.Close()

	svc := newTestLLMService(backend.URL)

	err := svc.StreamChat(context.Background(), "instruction", []ChatTurn{{Role: "user", Content: "hello"}}, func(string) error {
		t.Fatal("no fragments expected from a failed dispatch")
		return nil
	})
	if err == nil {
		t.Fatal("expected dispatch failure")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if requests != dispatchAttempts {
		t.Errorf("backend hit %d times, want %d", requests, dispatchAttempts)
	}
}

func TestStreamChatDispatchRespectsCancellation(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer backend.Close()

	svc := newTestLLMService(backend.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.StreamChat(ctx, "instruction", []ChatTurn{{Role: "user", Content: "hello"}}, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected failure with a canceled context")
	}
}
