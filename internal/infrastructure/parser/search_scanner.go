package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsNarrator/internal/scanner"
)

const companyPlaceholder = "{company}"

// SearchScanner reads one search-results page and keeps links whose path looks like an article.
type SearchScanner struct {
	client    *http.Client
	searchURL string
	base      *url.URL
	matcher   scanner.LinkMatcher
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*SearchScanner)(nil)

// SearchScannerOptions configures a SearchScanner.
type SearchScannerOptions struct {
	Client    *http.Client
	SearchURL string
	BaseURL   string
	Matcher   scanner.LinkMatcher
	UserAgent string
	Logger    *slog.Logger
}

// NewSearchScanner wires an HTTP client; a nil client gets a 15s timeout.
func NewSearchScanner(opts SearchScannerOptions) (*SearchScanner, error) {
	if !strings.Contains(opts.SearchURL, companyPlaceholder) {
		return nil, fmt.Errorf("search url %q has no %s placeholder", opts.SearchURL, companyPlaceholder)
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = scanner.DatePathMatcher{}
	}
	return &SearchScanner{
		client:    client,
		searchURL: opts.SearchURL,
		base:      base,
		matcher:   matcher,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}, nil
}

// Name identifies the strategy inside the registry.
func (s *SearchScanner) Name() string {
	return "html"
}

// Scan fetches the search page for the company and returns matching article URLs.
func (s *SearchScanner) Scan(ctx context.Context, req scanner.Request) ([]string, error) {
	pageURL := buildSearchURL(s.searchURL, req.Company)
	s.debug("scan search page", "url", pageURL)

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links := collectLinks(doc, s.base, s.matcher, req.Limit)
	s.debug("search page scanned", "company", req.Company, "links", len(links))
	return links, nil
}

func (s *SearchScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// collectLinks keeps same-host links in document order, without query or fragment, deduplicated.
func collectLinks(doc *goquery.Document, base *url.URL, matcher scanner.LinkMatcher, limit int) []string {
	var (
		links []string
		seen  = map[string]struct{}{}
	)

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(links) >= limit {
			return false
		}

		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host || !matcher.Match(resolved.Path) {
			return true
		}

		resolved.RawQuery = ""
		resolved.Fragment = ""
		canonical := resolved.String()
		if _, ok := seen[canonical]; ok {
			return true
		}
		seen[canonical] = struct{}{}
		links = append(links, canonical)
		return true
	})

	return links
}

func buildSearchURL(template, company string) string {
	return strings.ReplaceAll(template, companyPlaceholder, url.QueryEscape(strings.TrimSpace(company)))
}

func (s *SearchScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
