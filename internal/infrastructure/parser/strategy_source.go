package parser

import (
	"context"
	"fmt"
	"log/slog"

	"wikibot/internal/candidates"
	"wikibot/internal/config"
)

// StrategySource loads the worklist with the loader matching the configured source.
type StrategySource struct {
	registry *candidates.Registry
	cfg      config.CandidatesConfig
	logger   *slog.Logger
}

// NewStrategySource wires the loader registry with config-defined sources.
func NewStrategySource(reg *candidates.Registry, cfg config.CandidatesConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		cfg:      cfg,
		logger:   log,
	}
}

// Load reads the candidate list once. An empty list is an error because
// the scheduler has nothing to draw from.
func (s *StrategySource) Load(ctx context.Context) ([]string, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("candidate registry is not configured")
	}

	req := candidates.Request{Source: s.cfg.Source, Selector: s.cfg.Selector}
	kind := req.Kind()
	s.debug("load candidates", "source", req.Source, "kind", kind)

	loader, err := s.registry.Resolve(kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.Source, err)
	}

	raw, err := loader.Load(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("load candidates from %s: %w", req.Source, err)
	}

	titles := candidates.Normalize(raw)
	if len(titles) == 0 {
		return nil, fmt.Errorf("candidate source %s yielded no titles", req.Source)
	}

	s.debug("candidates loaded", "raw", len(raw), "unique", len(titles))
	return titles, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
