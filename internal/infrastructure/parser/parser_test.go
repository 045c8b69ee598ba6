package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/scanner"
)

const searchPage = `
<html><body>
  <a href="/2025/03/14/business/acme-profit.html?searchResultPosition=1">Acme profit</a>
  <a href="/2025/03/14/business/acme-profit.html?searchResultPosition=2">Acme profit again</a>
  <a href="/section/business">Business</a>
  <a href="https://ads.example.com/2025/03/14/ad.html">Ad</a>
  <a href="/2025/03/12/technology/acme-robots.html#comments">Robots</a>
  <a href="/2024/11/02/business/acme-lawsuit.html">Lawsuit</a>
</body></html>`

const articlePage = `
<html>
<head>
  <title>Acme Reports Record Profit - The Times</title>
  <meta property="og:title" content="Acme Reports Record Profit">
  <meta name="byl" content="By Jane Roe and John Doe">
  <meta property="article:published_time" content="2025-03-14T10:30:00-04:00">
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Acme Reports Record Profit</h1>
    <p>Acme reported record profit on Friday, lifted by strong demand for its anvils and rocket skates across the Southwest.</p>
    <p>The company said quarterly revenue rose to $2 billion, and executives raised their outlook for the rest of the year.</p>
    <p>Analysts in New York said the results were well ahead of expectations and showed the turnaround plan was working.</p>
  </article>
</body>
</html>`

func newTestSearchScanner(t *testing.T, server *httptest.Server, matcher scanner.LinkMatcher) *SearchScanner {
	t.Helper()

	sc, err := NewSearchScanner(SearchScannerOptions{
		Client:    server.Client(),
		SearchURL: server.URL + "/search?query={company}",
		BaseURL:   server.URL,
		Matcher:   matcher,
		UserAgent: "Mozilla/5.0",
	})
	if err != nil {
		t.Fatalf("NewSearchScanner: %v", err)
	}
	return sc
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	got := buildSearchURL("https://www.nytimes.com/search?query={company}", " Procter & Gamble ")
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if q := u.Query().Get("query"); q != "Procter & Gamble" {
		t.Fatalf("unexpected query: %q", q)
	}
}

func TestCollectLinks(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(searchPage))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	base, _ := url.Parse("https://www.nytimes.com")

	links := collectLinks(doc, base, scanner.DatePathMatcher{}, 10)
	want := []string{
		"https://www.nytimes.com/2025/03/14/business/acme-profit.html",
		"https://www.nytimes.com/2025/03/12/technology/acme-robots.html",
		"https://www.nytimes.com/2024/11/02/business/acme-lawsuit.html",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("link %d = %s, want %s", i, links[i], want[i])
		}
	}

	capped := collectLinks(doc, base, scanner.PrefixMatcher("/2025"), 1)
	if len(capped) != 1 || capped[0] != want[0] {
		t.Fatalf("unexpected capped links: %v", capped)
	}
}

func TestSearchScannerScan(t *testing.T) {
	t.Parallel()

	var (
		mu                 sync.Mutex
		gotQuery, gotAgent string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query().Get("query")
		gotAgent = r.UserAgent()
		mu.Unlock()
		_, _ = w.Write([]byte(searchPage))
	}))
	defer server.Close()

	sc := newTestSearchScanner(t, server, scanner.PrefixMatcher("/202"))
	links, err := sc.Scan(context.Background(), scanner.Request{Company: "Acme", Limit: 10})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotQuery != "Acme" || gotAgent != "Mozilla/5.0" {
		t.Fatalf("unexpected request: query=%q agent=%q", gotQuery, gotAgent)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %v", links)
	}
	if !strings.HasPrefix(links[0], server.URL+"/2025/03/14/") {
		t.Fatalf("unexpected first link: %s", links[0])
	}
}

func TestStrategyFetcherDiscoverSwallowsErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	reg := scanner.NewRegistry()
	reg.Register(newTestSearchScanner(t, server, nil))
	fetcher := NewStrategyFetcher(reg, "html", NewArticleExtractor(server.Client(), ""), nil, nil)

	if links := fetcher.Discover(context.Background(), "Acme", 10); len(links) != 0 {
		t.Fatalf("expected no links on 403, got %v", links)
	}

	unknown := NewStrategyFetcher(reg, "rss", nil, nil, nil)
	if links := unknown.Discover(context.Background(), "Acme", 10); len(links) != 0 {
		t.Fatalf("expected no links for unregistered scanner, got %v", links)
	}
}

func TestStrategyFetcherDiscoverTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	sc := newTestSearchScanner(t, server, nil)
	server.Close()

	reg := scanner.NewRegistry()
	reg.Register(sc)
	fetcher := NewStrategyFetcher(reg, "html", nil, nil, nil)
	if links := fetcher.Discover(context.Background(), "Acme", 0); links != nil {
		t.Fatalf("expected nil links, got %v", links)
	}
}

func TestArticleExtractorExtract(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2025/03/14/business/acme.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	limiter := NewHostRateLimiter(time.Millisecond)
	fetcher := NewStrategyFetcher(scanner.NewRegistry(), "html", NewArticleExtractor(server.Client(), "Mozilla/5.0"), limiter, nil)

	article, err := fetcher.Extract(context.Background(), server.URL+"/2025/03/14/business/acme.html")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if article.Title != "Acme Reports Record Profit" {
		t.Fatalf("unexpected title: %q", article.Title)
	}
	if len(article.Authors) != 2 || article.Authors[0] != "Jane Roe" || article.Authors[1] != "John Doe" {
		t.Fatalf("unexpected authors: %v", article.Authors)
	}
	if got := domain.FormatPublishDate(article.PublishedAt); got != "2025-03-14" {
		t.Fatalf("unexpected publish date: %s", got)
	}
	if !strings.Contains(article.FullText, "Acme reported record profit on Friday") {
		t.Fatalf("body missing lead paragraph: %q", article.FullText)
	}

	_, err = fetcher.Extract(context.Background(), server.URL+"/missing")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractAuthorsFromLinkedData(t *testing.T) {
	t.Parallel()

	page := `<html><head>
	<script type="application/ld+json">{"headline":"Globex merger","datePublished":"2025-01-02","author":[{"name":"Sam Lee"},{"name":"Ana Park"}]}</script>
	</head><body></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	ld := parseLinkedData(doc)

	if got := extractTitle(doc, ld); got != "Globex merger" {
		t.Fatalf("unexpected title: %q", got)
	}
	authors := extractAuthors(doc, ld)
	if len(authors) != 2 || authors[0] != "Sam Lee" || authors[1] != "Ana Park" {
		t.Fatalf("unexpected authors: %v", authors)
	}
	if got := domain.FormatPublishDate(extractPublished(doc, ld)); got != "2025-01-02" {
		t.Fatalf("unexpected date: %s", got)
	}
}

func TestSplitAuthors(t *testing.T) {
	t.Parallel()

	got := splitAuthors("By Jane Roe, John Doe and Sam Lee")
	want := []string{"Jane Roe", "John Doe", "Sam Lee"}
	if len(got) != len(want) {
		t.Fatalf("unexpected authors: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("author %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHostRateLimiterRejectsHostlessURL(t *testing.T) {
	t.Parallel()

	if err := NewHostRateLimiter(time.Second).WaitForHost(context.Background(), "/relative"); err == nil {
		t.Fatalf("expected error for URL without host")
	}
}
