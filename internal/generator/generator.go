// internal/generator/generator.go
//
// Client for the hosted language model that designs daily challenges.
// Responsibilities:
//   - Send the designer instructions plus the caller's prompt through the
//     Google GenAI SDK (generateContent, temperature 0.8).
//   - Take the response text, strip Markdown code fences, decode it.
//   - Canonicalise color names, normalise and validate the configuration.
//
// Notes:
//   - The client does not store anything; the caller hands the result to
//     daily.Store.Replace.
//   - Errors are typed so handlers can map them: missing key and empty prompt
//     are caller errors, APIError and ErrNoContent are upstream failures.

package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/robalobadob/mindmatch/internal/daily"
	"github.com/robalobadob/mindmatch/internal/mastermind"
	"github.com/robalobadob/mindmatch/internal/palette"
)

const systemInstructions = "You are an elite MindMatch puzzle designer. Act like a user filling out the Mastermind builder. " +
	"Return only the JSON object with keys: title, description, mastermindConfig { colors, slots, guesses, levels, code }. " +
	"Allowed colors (use exactly these words): %s. Choose 1-%d colors. " +
	"Slots: 1-%d and must be >= number of chosen colors. Guesses: 1-20. Levels: at least 1. " +
	"Code length equals slots and uses only the chosen colors (duplicates allowed). " +
	"Keep description under 50 words. No commentary."

const temperature float32 = 0.8

var (
	ErrMissingAPIKey = errors.New("generator: missing API key")
	ErrEmptyPrompt   = errors.New("generator: prompt must not be blank")
	ErrNoContent     = errors.New("generator: response did not contain content")
)

// APIError is a non-2xx response from the model endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generator: upstream error %d: %s", e.StatusCode, e.Body)
}

// Options configure a Client. Zero values take defaults.
type Options struct {
	APIKey  string
	Model   string
	URL     string // API base URL; empty uses the SDK default
	Timeout time.Duration
}

type Client struct {
	genai   *genai.Client
	initErr error
	enabled bool
	model   string
}

// Result is one generated challenge ready to be stored.
type Result struct {
	Payload daily.Payload
	RawJSON string // re-encoded Payload after normalisation
	Model   string
}

func New(o Options) *Client {
	if o.Model == "" {
		o.Model = "gemini-2.5-flash"
	}
	if o.Timeout <= 0 {
		o.Timeout = 90 * time.Second
	}
	c := &Client{model: o.Model, enabled: o.APIKey != ""}
	if o.APIKey == "" {
		return c
	}
	c.genai, c.initErr = genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     o.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: o.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    o.URL,
			APIVersion: "v1beta",
		},
	})
	if c.initErr != nil {
		log.Error().Err(c.initErr).Msg("generator client setup")
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.enabled }

// Model is the configured model name.
func (c *Client) Model() string { return c.model }

// Generate asks the model for a challenge matching prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}
	if !c.Enabled() {
		return Result{}, ErrMissingAPIKey
	}
	if c.initErr != nil {
		return Result{}, fmt.Errorf("generator: client setup: %w", c.initErr)
	}

	text, err := c.request(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	return decode(text, c.model)
}

func (c *Client) request(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		genai.Text(instructions()+"\n\nUser prompt:\n"+prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)})
	log.Debug().Err(err).Dur("took", time.Since(start)).Str("model", c.model).Msg("generateContent")

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		b := strings.TrimSpace(apiErr.Message)
		if b == "" {
			b = "no body"
		}
		return "", &APIError{StatusCode: apiErr.Code, Body: b}
	}
	if err != nil {
		return "", fmt.Errorf("generator: request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

func instructions() string {
	return fmt.Sprintf(systemInstructions, strings.Join(palette.Colors(), ", "), mastermind.MaxColors, mastermind.MaxSlots)
}

// decode turns model text into a validated Result.
func decode(text, model string) (Result, error) {
	var p daily.Payload
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &p); err != nil {
		return Result{}, fmt.Errorf("generator: payload is not JSON: %w", err)
	}
	if len(p.Mastermind.Palette) == 0 || len(p.Mastermind.Code) == 0 {
		return Result{}, fmt.Errorf("%w: generated puzzle has no colors or code", mastermind.ErrInvalidConfiguration)
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Mastermind = mastermind.Normalize(palette.CanonicalConfig(p.Mastermind))
	if err := p.Mastermind.Validate(); err != nil {
		return Result{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Result{}, err
	}
	return Result{Payload: p, RawJSON: string(raw), Model: model}, nil
}

// StripCodeFences removes a leading ``` / ```json fence and a trailing ```.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		for _, p := range []string{"```json", "```JSON", "```"} {
			if strings.HasPrefix(s, p) {
				s = strings.TrimLeft(s[len(p):], " \t\r\n")
				break
			}
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimRight(strings.TrimSuffix(s, "```"), " \t\r\n")
	}
	return strings.TrimSpace(s)
}
