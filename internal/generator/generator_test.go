package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// modelRequest is the part of a generateContent body the tests inspect.
type modelRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

// seenRequest records where a request went and which key it carried.
type seenRequest struct {
	path string
	key  string
}

func fakeModel(t *testing.T, status int, text string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.key = r.Header.Get("x-goog-api-key")
		if seen.key == "" {
			seen.key = r.URL.Query().Get("key")
		}
		body, _ := io.ReadAll(r.Body)
		var req modelRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body: %v", err)
		}
		if math.Abs(req.GenerationConfig.Temperature-0.8) > 1e-6 {
			t.Errorf("temperature = %v", req.GenerationConfig.Temperature)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) == 0 || !strings.Contains(req.Contents[0].Parts[0].Text, "User prompt:\nspooky") {
			t.Errorf("prompt not forwarded: %s", body)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(text))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestGenerateDecodesAndNormalises(t *testing.T) {
	text := "```json\n" + `{"title":" Haunted ","description":"boo","mastermindConfig":{"colors":["red","PURPLE","Orange"],"slots":2,"guesses":6,"levels":0,"code":["orange","Red","purple"]}}` + "\n```"
	srv, seen := fakeModel(t, http.StatusOK, text)

	c := New(Options{APIKey: "k&y", URL: srv.URL, Model: "test-model"})
	res, err := c.Generate(context.Background(), "  spooky  ")
	if err != nil {
		t.Fatal(err)
	}
	if seen.path != "/v1beta/models/test-model:generateContent" || seen.key != "k&y" {
		t.Errorf("request = %+v", *seen)
	}

	cfg := res.Payload.Mastermind
	want := []mastermind.Token{"Red", "Purple", "Orange"}
	if len(cfg.Palette) != 3 || cfg.Palette[0] != want[0] || cfg.Palette[1] != want[1] {
		t.Errorf("palette = %v", cfg.Palette)
	}
	if cfg.Slots != 3 || cfg.Levels != 1 || cfg.Code[0] != "Orange" {
		t.Errorf("config = %+v", cfg)
	}
	if res.Payload.Title != "Haunted" || res.Model != "test-model" {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.RawJSON, `"mastermindConfig"`) {
		t.Errorf("RawJSON = %s", res.RawJSON)
	}
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := New(Options{}).Generate(ctx, "x"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("no key: %v", err)
	}
	if _, err := New(Options{APIKey: "k"}).Generate(ctx, "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("blank prompt: %v", err)
	}

	srv, _ := fakeModel(t, http.StatusTooManyRequests, "quota")
	_, err := New(Options{APIKey: "k", URL: srv.URL}).Generate(ctx, "spooky")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Body != "quota" {
		t.Errorf("upstream error: %v", err)
	}

	srv, _ = fakeModel(t, http.StatusOK, "   ")
	if _, err := New(Options{APIKey: "k", URL: srv.URL}).Generate(ctx, "spooky"); !errors.Is(err, ErrNoContent) {
		t.Errorf("empty text: %v", err)
	}

	srv, _ = fakeModel(t, http.StatusOK, `{"title":"t","mastermindConfig":{"colors":[],"code":[]}}`)
	if _, err := New(Options{APIKey: "k", URL: srv.URL}).Generate(ctx, "spooky"); !errors.Is(err, mastermind.ErrInvalidConfiguration) {
		t.Errorf("empty config: %v", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```JSON {}```", "{}"},
		{"```\n{}\n```  ", "{}"},
		{"  {} ```", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
