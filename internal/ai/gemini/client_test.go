package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/resume-screener/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeResponse
	calls   int
	configs []*genai.GenerateContentConfig
	prompts []string
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.configs = append(f.configs, config)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func newTestGenerator(models *fakeModels, maxRetries int) *Generator {
	return &Generator{
		models:     models,
		model:      "gemini-test",
		maxTokens:  defaultMaxTokens,
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
	}
}

func TestGeneratorGenerateContent(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(`{"score": 0.9,`, ` "justification": "ok"}`), nil)

	out, err := newTestGenerator(models, 1).GenerateContent(context.Background(), "  rate  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out != "{\"score\": 0.9,\n\"justification\": \"ok\"}" {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(models.prompts) != 1 || models.prompts[0] != "rate" {
		t.Fatalf("unexpected prompts: %v", models.prompts)
	}

	cfg := models.configs[0]
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Fatalf("expected zero temperature, got %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != defaultMaxTokens {
		t.Fatalf("unexpected max output tokens: %d", cfg.MaxOutputTokens)
	}
}

func TestGeneratorRetriesOnServerError(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	defer func() { wait = originalWait }()

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	out, err := newTestGenerator(models, 2).GenerateContent(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "retry ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	defer func() { wait = originalWait }()

	models := &fakeModels{}
	apiErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, apiErr)
	models.enqueue(nil, apiErr)

	_, err := newTestGenerator(models, 2).GenerateContent(context.Background(), "p")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"})

	_, err := newTestGenerator(models, 3).GenerateContent(context.Background(), "p")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("  ", ""), nil)

	_, err := newTestGenerator(models, 1).GenerateContent(context.Background(), "p")
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), Options{APIKey: " "}, nil)
	if !errors.Is(err, ai.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
}

func TestGeneratorStopsWhenBackoffInterrupted(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return context.Canceled }
	defer func() { wait = originalWait }()

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadGateway, Status: "UNAVAILABLE"})
	models.enqueue(textResponse("never reached"), nil)

	_, err := newTestGenerator(models, 3).GenerateContent(context.Background(), "p")
	if !errors.Is(err, ai.ErrOracleUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrOracleUnavailable wrapping context.Canceled, got %v", err)
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}
