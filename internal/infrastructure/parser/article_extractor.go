package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"NewsNarrator/internal/domain"
)

const maxArticleBytes = 8 << 20

var (
	spaceExpr  = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankExpr  = regexp.MustCompile(`\n{3,}`)
	bylineExpr = regexp.MustCompile(`(?i)^\s*by\s+`)
	andExpr    = regexp.MustCompile(`\s*(?:,\s*and\s+|\s+and\s+|,\s*)\s*`)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"20060102",
		time.RFC1123Z,
		time.RFC1123,
	}
)

// ArticleExtractor downloads a page and pulls out title, authors, date and body text.
type ArticleExtractor struct {
	client    *http.Client
	userAgent string
	strip     *bluemonday.Policy
}

// NewArticleExtractor wires an HTTP client; a nil client gets a 30s timeout.
func NewArticleExtractor(client *http.Client, userAgent string) *ArticleExtractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArticleExtractor{client: client, userAgent: userAgent, strip: bluemonday.StrictPolicy()}
}

// Extract fails with domain.ErrExtraction for any download or parse problem.
func (e *ArticleExtractor) Extract(ctx context.Context, rawURL string) (domain.ArticlePartial, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return domain.ArticlePartial{}, fmt.Errorf("%w: parse url %s: %v", domain.ErrExtraction, rawURL, err)
	}

	raw, err := e.download(ctx, pageURL.String())
	if err != nil {
		return domain.ArticlePartial{}, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, rawURL, err)
	}

	return e.parse(raw, pageURL)
}

func (e *ArticleExtractor) download(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return nil, fmt.Errorf("read article: %w", err)
	}
	return raw, nil
}

func (e *ArticleExtractor) parse(raw []byte, pageURL *url.URL) (domain.ArticlePartial, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return domain.ArticlePartial{}, fmt.Errorf("%w: parse document: %v", domain.ErrExtraction, err)
	}

	ld := parseLinkedData(doc)

	return domain.ArticlePartial{
		URL:         pageURL.String(),
		Title:       extractTitle(doc, ld),
		Authors:     extractAuthors(doc, ld),
		PublishedAt: extractPublished(doc, ld),
		FullText:    e.extractText(raw, doc, pageURL),
	}, nil
}

// extractText prefers readability's main-content detection and falls back to page paragraphs.
func (e *ArticleExtractor) extractText(raw []byte, doc *goquery.Document, pageURL *url.URL) string {
	if article, err := readability.FromReader(bytes.NewReader(raw), pageURL); err == nil {
		var buf strings.Builder
		if err := article.RenderText(&buf); err == nil {
			if text := normalizeText(buf.String()); text != "" {
				return text
			}
		}
	}

	var paragraphs []string
	doc.Find("article p, main p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return normalizeText(strings.Join(paragraphs, "\n\n"))
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return normalizeText(html.UnescapeString(e.strip.Sanitize(body)))
}

type linkedData struct {
	Headline      string          `json:"headline"`
	DatePublished string          `json:"datePublished"`
	Author        json.RawMessage `json:"author"`
}

func parseLinkedData(doc *goquery.Document) linkedData {
	var found linkedData
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var candidate linkedData
		if err := json.Unmarshal([]byte(s.Text()), &candidate); err != nil {
			return true
		}
		if candidate.Headline == "" && candidate.DatePublished == "" && len(candidate.Author) == 0 {
			return true
		}
		found = candidate
		return false
	})
	return found
}

func (ld linkedData) authorNames() []string {
	if len(ld.Author) == 0 {
		return nil
	}

	type person struct {
		Name string `json:"name"`
	}
	var many []person
	if err := json.Unmarshal(ld.Author, &many); err == nil {
		names := make([]string, 0, len(many))
		for _, p := range many {
			names = append(names, p.Name)
		}
		return names
	}
	var one person
	if err := json.Unmarshal(ld.Author, &one); err == nil && one.Name != "" {
		return []string{one.Name}
	}
	var plain string
	if err := json.Unmarshal(ld.Author, &plain); err == nil {
		return []string{plain}
	}
	return nil
}

func extractTitle(doc *goquery.Document, ld linkedData) string {
	candidates := []string{
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="twitter:title"]`),
		ld.Headline,
		doc.Find("h1").First().Text(),
		doc.Find("title").First().Text(),
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

func extractAuthors(doc *goquery.Document, ld linkedData) []string {
	raw := []string{
		metaContent(doc, `meta[name="byl"]`),
		metaContent(doc, `meta[name="author"]`),
		metaContent(doc, `meta[property="article:author"]`),
	}

	var names []string
	for _, value := range raw {
		if value == "" || strings.HasPrefix(value, "http") {
			continue
		}
		names = splitAuthors(value)
		break
	}
	if len(names) == 0 {
		for _, n := range ld.authorNames() {
			names = append(names, splitAuthors(n)...)
		}
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func splitAuthors(value string) []string {
	value = bylineExpr.ReplaceAllString(strings.TrimSpace(value), "")
	var names []string
	for _, part := range andExpr.Split(value, -1) {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func extractPublished(doc *goquery.Document, ld linkedData) time.Time {
	candidates := []string{
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="pdate"]`),
		metaContent(doc, `meta[itemprop="datePublished"]`),
		ld.DatePublished,
	}
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, dt)
	}

	for _, c := range candidates {
		if t, ok := parseDate(c); ok {
			return t
		}
	}
	return time.Time{}
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func normalizeText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceExpr.ReplaceAllString(line, " "))
	}
	joined := blankExpr.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(joined)
}
