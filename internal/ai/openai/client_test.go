package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spigell/resume-screener/internal/ai"
)

func TestClientGenerateContent(t *testing.T) {
	var got chatRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"score\":0.85}"}}]}`))
	}))
	defer srv.Close()

	client := New(Options{URL: srv.URL, APIKey: " secret "}, nil)

	out, err := client.GenerateContent(context.Background(), "rate this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"score":0.85}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if got.Model != defaultModel || got.MaxTokens != defaultMaxTokens || got.Temperature != 0 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != systemPrompt || got.Messages[1].Role != "user" || got.Messages[1].Content != "rate this" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestClientReturnsRawBodyWithoutChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	out, err := New(Options{URL: srv.URL, APIKey: "k"}, nil).GenerateContent(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"object":"chat.completion","choices":[]}` {
		t.Fatalf("expected raw body, got %q", out)
	}
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		apiKey  string
		handler http.HandlerFunc
		timeout time.Duration
		contain string
	}{
		{
			name:    "missing api key",
			apiKey:  "",
			handler: func(w http.ResponseWriter, r *http.Request) { t.Error("server must not be called") },
			contain: "LLM_API_KEY",
		},
		{
			name:   "non 2xx",
			apiKey: "k",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
			},
			contain: "status 401",
		},
		{
			name:   "non json body",
			apiKey: "k",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>gateway</html>"))
			},
			contain: "decode response",
		},
		{
			name:   "timeout",
			apiKey: "k",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			},
			timeout: 20 * time.Millisecond,
			contain: "oracle unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := New(Options{URL: srv.URL, APIKey: tt.apiKey, Timeout: tt.timeout}, nil)
			_, err := client.GenerateContent(context.Background(), "p")
			if !errors.Is(err, ai.ErrOracleUnavailable) {
				t.Fatalf("expected ErrOracleUnavailable, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contain) {
				t.Fatalf("expected error to contain %q, got %v", tt.contain, err)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	client := New(Options{Model: "  "}, nil)

	if client.url != defaultURL || client.Model() != defaultModel || client.maxTokens != defaultMaxTokens {
		t.Fatalf("unexpected defaults: %+v", client)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Fatalf("unexpected timeout %v", client.httpClient.Timeout)
	}
}
