package prompts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGenerator(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, nil, option.WithMaxRetries(0))
}

func TestGenerateUsesCompletionResponse(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"a lighthouse on a stormy cliff at dusk"}}]}`))
	})

	prompt := gen.Generate(context.Background(), "The lighthouse keeper watched the storm roll in.")
	if prompt != "a lighthouse on a stormy cliff at dusk" {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestGenerateFallsBackOnServiceError(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusInternalServerError)
	})

	scene := "The lighthouse keeper watched the storm roll in."
	if prompt := gen.Generate(context.Background(), scene); prompt != scene {
		t.Fatalf("expected raw scene fallback, got %q", prompt)
	}
}

func TestGenerateFallsBackOnShortResponse(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	scene := "The lighthouse keeper watched the storm roll in."
	if prompt := gen.Generate(context.Background(), scene); prompt != scene {
		t.Fatalf("expected raw scene fallback, got %q", prompt)
	}
}

func TestGenerateEmptySceneYieldsEmptyPrompt(t *testing.T) {
	gen := NewGenerator(Config{APIKey: "test-key", Model: "gpt-4o-mini"}, nil)
	if prompt := gen.Generate(context.Background(), "   "); prompt != "" {
		t.Fatalf("expected empty prompt, got %q", prompt)
	}
}

func TestFallbackTruncates(t *testing.T) {
	long := strings.Repeat("scene text ", 30)
	fallback := Fallback(long)
	if len([]rune(fallback)) != 100 {
		t.Fatalf("expected 100 runes, got %d", len([]rune(fallback)))
	}
	if !strings.HasPrefix(long, fallback) {
		t.Fatal("fallback should be a prefix of the scene text")
	}

	if Fallback("short scene.") != "short scene." {
		t.Fatal("short scenes should pass through unchanged")
	}
}
