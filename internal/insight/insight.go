// Package insight produces the dashboard's generated calibration summary.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"calibration-qa-backend/internal/model"
)

const (
	PromptPrefix      = "Analyse the following calibration history and provide a summary of trends, potential equipment failures, and maintenance recommendations for GMP compliance: "
	SystemInstruction = "You are a professional calibration analyst specializing in GMP/ISO industrial standards."
	// Fallback is returned in place of the text whenever generation fails.
	Fallback        = "Error generating AI insights."
	DefaultHeadline = "Sistem klinis berjalan sesuai parameter GMP."
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("insight generator is not configured")

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service caches generated insights per instrument set.
type Service struct {
	gen     Generator
	cache   *cache.Cache
	group   singleflight.Group
	timeout time.Duration
	log     *zap.Logger
}

// NewService creates an insight service. A nil gen disables generation.
func NewService(gen Generator, ttl, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{
		gen:     gen,
		cache:   cache.New(ttl, 2*ttl),
		timeout: timeout,
		log:     log,
	}
}

// Prompt builds the request text for instruments.
func Prompt(payload []byte) string {
	return PromptPrefix + string(payload)
}

// Analyze returns the generated insight for instruments. On failure the
// text is Fallback and the error says why; failures are not cached.
func (s *Service) Analyze(ctx context.Context, instruments []model.Instrument) (string, error) {
	if s.gen == nil {
		return Fallback, ErrDisabled
	}
	payload, err := json.Marshal(instruments)
	if err != nil {
		return Fallback, fmt.Errorf("failed to encode instruments: %w", err)
	}
	sum := sha256.Sum256(payload)
	key := hex.EncodeToString(sum[:])

	if text, found := s.cache.Get(key); found {
		return text.(string), nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		// Detached so one caller going away does not fail the others.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		text, err := s.gen.Generate(callCtx, Prompt(payload))
		if err != nil {
			return "", err
		}
		s.cache.SetDefault(key, text)
		return text, nil
	})
	if err != nil {
		s.log.Warn("Insight generation failed", zap.Error(err), zap.Bool("shared", shared))
		return Fallback, err
	}
	return v.(string), nil
}

// Headline returns the first sentence of text, or DefaultHeadline.
func Headline(text string) string {
	first, _, _ := strings.Cut(text, ".")
	if first = strings.TrimSpace(first); first == "" {
		return DefaultHeadline
	}
	return first
}
