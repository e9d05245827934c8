package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOpenAIGenerator_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIOptions{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openAIImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.N != 1 {
			t.Errorf("expected n=1, got %d", req.N)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"url": "https://img.example/abc.png"}},
		})
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator(OpenAIOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	asset, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "a chart"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if asset.URL != "https://img.example/abc.png" {
		t.Fatalf("unexpected url %q", asset.URL)
	}
}

func TestOpenAIGenerator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator(OpenAIOptions{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestStaticGenerator_Deterministic(t *testing.T) {
	gen := NewStaticGenerator()
	a, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "sunset"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := gen.Generate(context.Background(), GenerateRequest{Prompt: "sunset"})
	if a.URL != b.URL || a.URL == "" {
		t.Fatalf("expected stable url, got %q vs %q", a.URL, b.URL)
	}
}
