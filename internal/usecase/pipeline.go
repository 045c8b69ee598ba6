package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsNarrator/internal/annotate"
	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const (
	defaultWorkers        = 4
	defaultArticleTimeout = 90 * time.Second
	digestTopTitles       = 3
	digestTimeout         = 15 * time.Second
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher    ports.ArticleFetcher
	Summarizer *annotate.Summarizer
	Classifier *annotate.SentimentClassifier
	Entities   *annotate.EntityExtractor
	Narrator   *Narrator
	Archive    ports.RunArchive
	Notifier   ports.Notifier
	Metrics    ports.Recorder
	Logger     *slog.Logger

	Workers        int
	AudioWorkers   int
	ArticleTimeout time.Duration
	// RunTimeout bounds a whole Run; zero leaves it to the caller's context.
	RunTimeout  time.Duration
	MaxArticles int
}

// Pipeline turns a company name into annotated records and, on request, narrations.
type Pipeline struct {
	fetcher    ports.ArticleFetcher
	summarizer *annotate.Summarizer
	classifier *annotate.SentimentClassifier
	entities   *annotate.EntityExtractor
	narrator   *Narrator
	archive    ports.RunArchive
	notifier   ports.Notifier
	metrics    ports.Recorder
	logger     *slog.Logger

	workers        int
	audioWorkers   int
	articleTimeout time.Duration
	runTimeout     time.Duration
	maxArticles    int

	newID func() string
	now   func() time.Time

	// digests still being delivered
	pending sync.WaitGroup
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		fetcher:        deps.Fetcher,
		summarizer:     deps.Summarizer,
		classifier:     deps.Classifier,
		entities:       deps.Entities,
		narrator:       deps.Narrator,
		archive:        deps.Archive,
		notifier:       deps.Notifier,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		workers:        deps.Workers,
		audioWorkers:   deps.AudioWorkers,
		articleTimeout: deps.ArticleTimeout,
		runTimeout:     deps.RunTimeout,
		maxArticles:    deps.MaxArticles,
		newID:          uuid.NewString,
		now:            time.Now,
	}
	if p.workers <= 0 {
		p.workers = defaultWorkers
	}
	if p.audioWorkers <= 0 {
		p.audioWorkers = p.workers
	}
	if p.articleTimeout <= 0 {
		p.articleTimeout = defaultArticleTimeout
	}
	return p
}

// Run discovers and annotates articles for company. Articles that fail to
// extract or annotate are dropped; the only error is cancellation of ctx.
func (p *Pipeline) Run(ctx context.Context, company string) (domain.Run, error) {
	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	started := p.now()
	run := domain.Run{
		ID:        p.newID(),
		Company:   company,
		StartedAt: started.UTC(),
		Records:   domain.ResultSet{},
	}

	urls := p.fetcher.Discover(ctx, company, p.maxArticles)
	if err := ctx.Err(); err != nil {
		return domain.Run{}, fmt.Errorf("run %s: %w", company, err)
	}
	run.Discovered = len(urls)

	if len(urls) == 0 {
		p.info("no results", "company", company, "run", run.ID)
	} else {
		run.Records = p.processAll(ctx, run.ID, urls)
		if err := ctx.Err(); err != nil {
			return domain.Run{}, fmt.Errorf("run %s: %w", company, err)
		}
	}

	run.Failed = run.Discovered - len(run.Records)
	run.FinishedAt = p.now().UTC()
	p.info("run finished", "company", company, "run", run.ID,
		"discovered", run.Discovered, "records", len(run.Records), "failed", run.Failed)

	if p.metrics != nil {
		p.metrics.RunFinished(run.FinishedAt.Sub(run.StartedAt), len(run.Records))
	}
	p.afterRun(ctx, run)
	return run, nil
}

// processAll fans out over a bounded pool; each record lands in its discovery slot.
func (p *Pipeline) processAll(ctx context.Context, runID string, urls []string) domain.ResultSet {
	slots := make([]*domain.ArticleRecord, len(urls))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, stage, err := p.processArticle(ctx, u)
			if err != nil {
				p.warn("article dropped", "run", runID, "url", u, "stage", stage, "error", err)
				if p.metrics != nil {
					p.metrics.ArticleFailed(stage)
				}
				return nil
			}
			if p.metrics != nil {
				p.metrics.ArticleProcessed()
			}
			slots[i] = &record
			return nil
		})
	}
	_ = g.Wait()

	records := make(domain.ResultSet, 0, len(urls))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

func (p *Pipeline) processArticle(ctx context.Context, url string) (domain.ArticleRecord, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.articleTimeout)
	defer cancel()

	partial, err := p.fetcher.Extract(ctx, url)
	if err != nil {
		return domain.ArticleRecord{}, "extract", err
	}
	if partial.URL == "" {
		partial.URL = url
	}

	summary, err := p.summarizer.Summarize(ctx, partial.FullText)
	if err != nil {
		return domain.ArticleRecord{}, "summarize", fmt.Errorf("summarize: %w", err)
	}
	sentiment, err := p.classifier.Classify(ctx, partial.FullText)
	if err != nil {
		return domain.ArticleRecord{}, "sentiment", fmt.Errorf("classify: %w", err)
	}
	topics, err := p.entities.Topics(ctx, partial.FullText)
	if err != nil {
		return domain.ArticleRecord{}, "topics", fmt.Errorf("topics: %w", err)
	}

	return domain.ArticleRecord{
		Title:          partial.Title,
		Authors:        domain.Authors(partial.Authors),
		PublishDate:    domain.FormatPublishDate(partial.PublishedAt),
		Summary:        summary,
		FullText:       partial.FullText,
		URL:            partial.URL,
		Sentiment:      sentiment.Label,
		SentimentScore: sentiment.Score,
		Topics:         topics,
	}, "", nil
}

// Narrate speaks every record summary of run, one artifact per record index.
// Artifacts are returned in record order; a storage failure aborts the pass.
func (p *Pipeline) Narrate(ctx context.Context, run domain.Run) ([]domain.AudioArtifact, error) {
	if p.narrator == nil {
		return nil, fmt.Errorf("narrator is not configured")
	}

	artifacts := make([]domain.AudioArtifact, len(run.Records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.audioWorkers)
	for i, rec := range run.Records {
		g.Go(func() error {
			artifact, err := p.narrator.Narrate(gctx, rec.Summary, domain.NewAudioKey(run.ID, run.Company, i))
			if err != nil {
				return err
			}
			artifacts[i] = artifact
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("narrate run %s: %w", run.ID, err)
	}
	return artifacts, nil
}

// NarrateText speaks an ad-hoc text under a fresh run namespace.
func (p *Pipeline) NarrateText(ctx context.Context, text string) (domain.AudioArtifact, error) {
	if p.narrator == nil {
		return domain.AudioArtifact{}, fmt.Errorf("narrator is not configured")
	}
	return p.narrator.Narrate(ctx, text, domain.AdhocAudioKey(p.newID(), text))
}

// LoadRun reads an archived run.
func (p *Pipeline) LoadRun(ctx context.Context, id string) (domain.Run, error) {
	if p.archive == nil {
		return domain.Run{}, domain.ErrRunNotFound
	}
	return p.archive.LoadRun(ctx, id)
}

// afterRun archives and announces the run. Hook failures are logged only.
// The archive write finishes before Run returns so /runs/{id} resolves at once;
// the digest is sent in the background and outlives the request context.
func (p *Pipeline) afterRun(ctx context.Context, run domain.Run) {
	if p.archive != nil {
		if err := p.archive.SaveRun(ctx, run); err != nil {
			p.warn("archive run", "run", run.ID, "error", err)
		}
	}

	if p.notifier == nil || len(run.Records) == 0 {
		return
	}
	msg := buildDigestMessage(run)
	digestCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), digestTimeout)
	p.pending.Go(func() {
		defer cancel()
		if err := p.notifier.PublishDigest(digestCtx, msg); err != nil {
			p.warn("publish digest", "run", run.ID, "error", err)
		}
	})
}

// Wait blocks until every digest started by Run has been delivered or given up.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

func buildDigestMessage(run domain.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d articles (%d dropped)\n", run.Company, len(run.Records), run.Failed)

	dist := run.Records.Distribution()
	fmt.Fprintf(&b, "Positive %d / Neutral %d / Negative %d\n",
		dist[domain.SentimentPositive], dist[domain.SentimentNeutral], dist[domain.SentimentNegative])

	top := SortByScore(run.Records)
	if len(top) > digestTopTitles {
		top = top[:digestTopTitles]
	}
	for _, rec := range top {
		fmt.Fprintf(&b, "\n- %s (%s %.2f)\n%s\n", rec.Title, rec.Sentiment, rec.SentimentScore, rec.URL)
	}
	return b.String()
}

// SortByScore returns a copy of records ordered by sentiment score, highest first.
func SortByScore(records domain.ResultSet) domain.ResultSet {
	sorted := make(domain.ResultSet, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SentimentScore > sorted[j].SentimentScore
	})
	return sorted
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
