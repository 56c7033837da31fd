package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestOpenAIGenerate_SendsExpectedPayloadAndParsesOutput(t *testing.T) {
	const envKey = "STARSMITH_OPENAI_TEST_KEY"
	t.Setenv(envKey, "test-api-key")

	var gotAuth string
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error": {"code": "", "message": ""},
			"output": [
				{
					"type": "message",
					"role": "assistant",
					"content": [
						{"type": "output_text", "text": "  Score: 5/7 with room to grow.  ", "annotations": []}
					]
				}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := NewOpenAI(OpenAIConfig{
		Model:     "gpt-5",
		BaseURL:   srv.URL,
		APIKeyEnv: envKey,
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewOpenAI returned error: %v", err)
	}

	out, err := gen.Generate(context.Background(), Request{
		Instructions: "You score work examples.",
		Input:        "user: my work example",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "Score: 5/7 with room to grow." {
		t.Fatalf("output = %q, want trimmed output text", out)
	}

	if gotAuth != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q, want bearer auth", gotAuth)
	}
	if gotPath != "/responses" {
		t.Fatalf("path = %q, want %q", gotPath, "/responses")
	}
	if gotBody["model"] != "gpt-5" {
		t.Fatalf("model = %v, want %q", gotBody["model"], "gpt-5")
	}
	if gotBody["instructions"] != "You score work examples." {
		t.Fatalf("instructions = %v, want role instructions", gotBody["instructions"])
	}
	if gotBody["input"] != "user: my work example" {
		t.Fatalf("input = %v, want rendered conversation", gotBody["input"])
	}
}

func TestNewOpenAI_ReturnsErrorWhenAPIKeyMissing(t *testing.T) {
	const envKey = "STARSMITH_OPENAI_MISSING_KEY"
	if err := os.Unsetenv(envKey); err != nil {
		t.Fatalf("unset env: %v", err)
	}

	_, err := NewOpenAI(OpenAIConfig{
		Model:     "gpt-5",
		BaseURL:   "http://127.0.0.1",
		APIKeyEnv: envKey,
	}, nil)
	if err == nil {
		t.Fatal("NewOpenAI returned nil error, want error")
	}
}

func TestNewOpenAI_ReturnsErrorWhenModelMissing(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{APIKey: "test-api-key"}, nil)
	if err == nil {
		t.Fatal("NewOpenAI returned nil error, want error")
	}
}

func TestOpenAIGenerate_ReturnsErrorWhenOutputTextMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error": {"code": "", "message": ""},
			"output": []
		}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := NewOpenAI(OpenAIConfig{
		Model:   "gpt-5",
		BaseURL: srv.URL,
		APIKey:  "test-api-key",
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewOpenAI returned error: %v", err)
	}

	_, err = gen.Generate(context.Background(), Request{Instructions: "score", Input: "text"})
	if err == nil {
		t.Fatal("Generate returned nil error, want error")
	}
	if !strings.Contains(err.Error(), "output text") {
		t.Fatalf("error = %q, want output text failure", err.Error())
	}
}

func TestOpenAIGenerate_SurfacesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error": {"code": "rate_limit_exceeded", "message": "Rate limit reached"},
			"output": []
		}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := NewOpenAI(OpenAIConfig{
		Model:   "gpt-5",
		BaseURL: srv.URL,
		APIKey:  "test-api-key",
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewOpenAI returned error: %v", err)
	}

	_, err = gen.Generate(context.Background(), Request{Instructions: "score", Input: "text"})
	if err == nil {
		t.Fatal("Generate returned nil error, want error")
	}
	if !strings.Contains(err.Error(), "Rate limit reached") {
		t.Fatalf("error = %q, want API error message", err.Error())
	}
}
