// Package gemini implements the translation backend on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

var ErrNoAPIKey = errors.New("gemini: api key is empty")

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client satisfies translate.Backend.
type Client struct {
	model    string
	generate generateFunc
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	c := &Client{model: model}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	log.Info().Str("module", "adapters.gemini").Str("model", model).Msg("translation backend ready")
	return c, nil
}

func (c *Client) Model() string { return c.model }

// Translate asks the model for the bare translation of text. Language
// arguments are display names such as "Spanish".
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	out, err := c.generate(ctx, Prompt(text, sourceLang, targetLang))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return clean(out), nil
}

// Prompt builds the instruction sent to the model.
func Prompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Translate the following text from %s to %s. Only provide the translation, no explanations or additional text.\n\nText to translate: %q",
		sourceLang, targetLang, text,
	)
}

// clean drops surrounding whitespace and the quotes models like to echo back.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
