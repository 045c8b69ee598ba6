package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsNarrator/internal/scanner"
)

// FeedScanner discovers article links from an RSS/Atom search feed.
type FeedScanner struct {
	client    *http.Client
	feedURL   string
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner expects feedURL to contain the {company} placeholder.
func NewFeedScanner(client *http.Client, feedURL, userAgent string, logger *slog.Logger) (*FeedScanner, error) {
	if !strings.Contains(feedURL, companyPlaceholder) {
		return nil, fmt.Errorf("feed url %q has no %s placeholder", feedURL, companyPlaceholder)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedScanner{client: client, feedURL: feedURL, userAgent: userAgent, logger: logger}, nil
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan returns item links in feed order.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]string, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	if f.userAgent != "" {
		fp.UserAgent = f.userAgent
	}

	feed, err := fp.ParseURLWithContext(buildSearchURL(f.feedURL, req.Company), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var (
		links []string
		seen  = map[string]struct{}{}
	)
	for _, item := range feed.Items {
		if req.Limit > 0 && len(links) >= req.Limit {
			break
		}
		u, err := url.Parse(strings.TrimSpace(item.Link))
		if err != nil || u.Host == "" {
			continue
		}
		u.Fragment = ""
		link := u.String()
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	if f.logger != nil {
		f.logger.Debug("feed scanned", "company", req.Company, "items", len(feed.Items), "links", len(links))
	}
	return links, nil
}
