package parser

import (
	"context"
	"log/slog"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
	"NewsNarrator/internal/scanner"
)

// DefaultMaxArticles caps discovery when the caller passes no limit.
const DefaultMaxArticles = 10

// StrategyFetcher implements ArticleFetcher via a registered discovery strategy and a page extractor.
type StrategyFetcher struct {
	registry  *scanner.Registry
	strategy  string
	extractor *ArticleExtractor
	limiter   *HostRateLimiter
	logger    *slog.Logger
}

var _ ports.ArticleFetcher = (*StrategyFetcher)(nil)

// NewStrategyFetcher wires the scanner registry with the configured strategy name.
func NewStrategyFetcher(reg *scanner.Registry, strategy string, extractor *ArticleExtractor, limiter *HostRateLimiter, log *slog.Logger) *StrategyFetcher {
	return &StrategyFetcher{
		registry:  reg,
		strategy:  strategy,
		extractor: extractor,
		limiter:   limiter,
		logger:    log,
	}
}

// Discover never fails: scan errors are logged and yield an empty list.
func (s *StrategyFetcher) Discover(ctx context.Context, company string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxArticles
	}
	if s.registry == nil {
		s.warn("scanner registry is not configured")
		return nil
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		s.warn("resolve scanner", "scanner", s.strategy, "error", err)
		return nil
	}

	s.debug("discover", "company", company, "scanner", s.strategy, "limit", limit)
	links, err := strategy.Scan(ctx, scanner.Request{Company: company, Limit: limit})
	if err != nil {
		s.warn("discovery failed", "company", company, "scanner", s.strategy, "error", err)
		return nil
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return links
}

// Extract waits for the host limiter, then downloads and parses the page.
func (s *StrategyFetcher) Extract(ctx context.Context, url string) (domain.ArticlePartial, error) {
	if err := s.limiter.WaitForHost(ctx, url); err != nil {
		return domain.ArticlePartial{}, err
	}
	return s.extractor.Extract(ctx, url)
}

func (s *StrategyFetcher) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategyFetcher) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
