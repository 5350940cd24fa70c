package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var _ Generator = (*Gemini)(nil)
var _ Generator = GeneratorFunc(nil)

func TestGeneratorFunc(t *testing.T) {
	gen := GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if prompt == "" {
			return "", ErrProvider
		}
		return "SELECT 1", nil
	})

	got, err := gen.Generate(context.Background(), "anything")
	if err != nil || got != "SELECT 1" {
		t.Errorf("Generate() = %q, %v", got, err)
	}

	if _, err := gen.Generate(context.Background(), ""); !errors.Is(err, ErrProvider) {
		t.Errorf("Generate(empty) error = %v, want ErrProvider", err)
	}
}

func candidate(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func newTestGemini(t *testing.T, timeout time.Duration, h http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), "test-key", "gemini-2.0-flash", timeout, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	return g
}

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey string
	g := newTestGemini(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, candidate("  SELECT * FROM transactions  \n"))
	})

	got, err := g.Generate(context.Background(), "write a query")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT * FROM transactions" {
		t.Errorf("Generate() = %q", got)
	}
	if !strings.HasSuffix(gotPath, "models/gemini-2.0-flash:generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestGemini_GenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		handler http.HandlerFunc
	}{
		{
			name:    "server error",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`)
			},
		},
		{
			name:    "empty candidate",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, candidate("   "))
			},
		},
		{
			name:    "no candidates",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"candidates":[]}`)
			},
		},
		{
			name:    "timeout",
			timeout: 50 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				fmt.Fprint(w, candidate("too late"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, tt.timeout, tt.handler)

			start := time.Now()
			got, err := g.Generate(context.Background(), "write a query")
			if !errors.Is(err, ErrProvider) {
				t.Fatalf("Generate() = %q, %v; want ErrProvider", got, err)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("Generate() took %v, want it bounded by the timeout", elapsed)
			}
		})
	}
}
