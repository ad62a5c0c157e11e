// Package translate wraps the external translation capability with a per-call
// timeout, fail-fast errors and a same-language short-circuit.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Babel/internal/language"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=gateway.go -destination=../../mocks/mock_backend.go -package=mocks

var (
	ErrTranslationFailed = errors.New("translation failed")
	ErrUnavailable       = errors.New("translation backend not configured")
	ErrEmptyText         = errors.New("nothing to translate")
)

const DefaultTimeout = 8 * time.Second

// Backend is the external capability. It receives engine-facing language
// names, e.g. "Spanish", never codes.
type Backend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

type Gateway struct {
	backend Backend
	timeout time.Duration
}

// NewGateway accepts a nil backend; only same-language requests succeed then.
func NewGateway(backend Backend, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{backend: backend, timeout: timeout}
}

func (g *Gateway) Configured() bool { return g.backend != nil }

// Translate calls the backend at most once. Every failure, including a
// timeout or a blank answer, is reported as an error wrapping
// ErrTranslationFailed or ErrUnavailable; it never returns "" with a nil error.
func (g *Gateway) Translate(ctx context.Context, text string, source, target language.Code) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	source, target = language.Normalize(string(source)), language.Normalize(string(target))
	if source == target {
		return text, nil
	}
	if g.backend == nil {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.backend.Translate(ctx, text, language.Name(source), language.Name(target))
	logger := log.With().
		Str("module", "app.translate").
		Str("source", string(source)).
		Str("target", string(target)).
		Dur("latency", time.Since(start)).
		Logger()
	if err != nil {
		logger.Warn().Err(err).Msg("backend error")
		return "", fmt.Errorf("%w: %s→%s: %w", ErrTranslationFailed, source, target, err)
	}
	if ctx.Err() != nil {
		logger.Warn().Err(ctx.Err()).Msg("backend answered after deadline")
		return "", fmt.Errorf("%w: %s→%s: %w", ErrTranslationFailed, source, target, ctx.Err())
	}
	out = strings.TrimSpace(out)
	if out == "" {
		logger.Warn().Msg("backend returned empty text")
		return "", fmt.Errorf("%w: %s→%s: empty result", ErrTranslationFailed, source, target)
	}
	logger.Debug().Msg("translated")
	return out, nil
}
