package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsNarrator/internal/annotate"
	"NewsNarrator/internal/api"
	"NewsNarrator/internal/config"
	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/infrastructure/llm"
	"NewsNarrator/internal/infrastructure/ml"
	"NewsNarrator/internal/infrastructure/parser"
	"NewsNarrator/internal/infrastructure/scheduler"
	"NewsNarrator/internal/infrastructure/speech"
	"NewsNarrator/internal/infrastructure/storage"
	"NewsNarrator/internal/infrastructure/telegram"
	"NewsNarrator/internal/logging"
	"NewsNarrator/internal/metrics"
	"NewsNarrator/internal/ports"
	"NewsNarrator/internal/scanner"
	"NewsNarrator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	audio    *storage.DiskAudioStore
	metrics  *metrics.Metrics
	sweeper  *usecase.RetentionSweeper
	probes   map[string]ports.Prober
	db       *sql.DB
}

// FetchResult is what a one-shot run prints.
type FetchResult struct {
	Run   domain.Run             `json:"run"`
	Audio []domain.AudioArtifact `json:"audio,omitempty"`
}

// New builds every adapter from cfg. The run archive is only opened when a DSN is set.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	fetcher, err := buildFetcher(cfg.Discovery, baseLogger)
	if err != nil {
		return nil, err
	}

	mlClient := ml.NewClient(cfg.ML.BaseURL, cfg.ML.APIKey, ml.Models{
		Summary:   cfg.ML.SummaryModel,
		Sentiment: cfg.ML.SentimentModel,
		Entity:    cfg.ML.EntityModel,
	}, cfg.ML.Timeout)

	var summaryBackend ports.Summarizer = mlClient
	if cfg.Pipeline.Summarizer == "chatgpt" {
		if cfg.ChatGPT.APIKey == "" {
			return nil, fmt.Errorf("pipeline.summarizer is chatgpt but no api key is configured")
		}
		summaryBackend = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	audio, err := storage.NewDiskAudioStore(cfg.Audio.Dir)
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	speechClient := &http.Client{Timeout: cfg.Speech.Timeout}
	narrator := usecase.NewNarrator(usecase.NarratorDeps{
		Translator:     speech.NewGoogleTranslator(cfg.Speech.TranslateURL, speechClient),
		Synthesizer:    speech.NewGoogleSynthesizer(cfg.Speech.TTSURL, speechClient),
		Store:          audio,
		Metrics:        recorder,
		Logger:         baseLogger.With("component", "narrator"),
		SourceLanguage: cfg.Speech.SourceLanguage,
		TargetLanguage: cfg.Speech.TargetLanguage,
		FallbackText:   cfg.Speech.FallbackText,
	})

	application := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		audio:   audio,
		metrics: recorder,
		probes:  map[string]ports.Prober{"ml": mlClient},
	}

	var archive ports.RunArchive
	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgresRunArchive(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		application.db = db
		archive = pg
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != 0 {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	application.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:        fetcher,
		Summarizer:     annotate.NewSummarizer(summaryBackend, cfg.Pipeline.SummaryMin, cfg.Pipeline.SummaryMax),
		Classifier:     annotate.NewSentimentClassifier(mlClient),
		Entities:       annotate.NewEntityExtractor(mlClient),
		Narrator:       narrator,
		Archive:        archive,
		Notifier:       notifier,
		Metrics:        recorder,
		Logger:         baseLogger.With("component", "pipeline"),
		Workers:        cfg.Pipeline.Workers,
		AudioWorkers:   cfg.Audio.Workers,
		ArticleTimeout: cfg.Pipeline.ArticleTimeout,
		RunTimeout:     cfg.Pipeline.RunTimeout,
		MaxArticles:    cfg.Discovery.MaxArticles,
	})

	application.sweeper = usecase.NewRetentionSweeper(
		scheduler.NewCronScheduler(cfg.Audio.SweepCron, time.UTC),
		audio,
		cfg.Audio.Retention,
		baseLogger.With("component", "retention"),
	)

	return application, nil
}

func buildFetcher(cfg config.DiscoveryConfig, logger *slog.Logger) (*parser.StrategyFetcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	matcher, err := scanner.NewMatcher(cfg.Matcher, cfg.Prefix)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry()
	search, err := parser.NewSearchScanner(parser.SearchScannerOptions{
		Client:    client,
		SearchURL: cfg.SearchURL,
		BaseURL:   cfg.BaseURL,
		Matcher:   matcher,
		UserAgent: cfg.UserAgent,
		Logger:    logger.With("component", "scanner.html"),
	})
	if err != nil {
		return nil, fmt.Errorf("html scanner: %w", err)
	}
	registry.Register(search)

	if cfg.FeedURL != "" {
		feed, err := parser.NewFeedScanner(client, cfg.FeedURL, cfg.UserAgent, logger.With("component", "scanner.rss"))
		if err != nil {
			return nil, fmt.Errorf("rss scanner: %w", err)
		}
		registry.Register(feed)
	}

	if _, err := registry.Resolve(cfg.Scanner); err != nil {
		return nil, fmt.Errorf("discovery.scanner %q: %w (have %v)", cfg.Scanner, err, registry.Names())
	}

	return parser.NewStrategyFetcher(
		registry,
		cfg.Scanner,
		parser.NewArticleExtractor(client, cfg.UserAgent),
		parser.NewHostRateLimiter(cfg.HostInterval),
		logger.With("component", "fetcher"),
	), nil
}

// Probe checks the hosted capabilities. Failures are *domain.CapabilityError;
// they are fatal only when ml.failOnProbeFail is set.
func (a *Application) Probe(ctx context.Context) error {
	if !a.cfg.ML.ProbeOnStartup {
		return nil
	}

	var errs []error
	for name, prober := range a.probes {
		if err := prober.Probe(ctx); err != nil {
			capErr := &domain.CapabilityError{Capability: name, Err: err}
			a.logger.Warn("capability probe failed", "capability", name, "error", err)
			errs = append(errs, capErr)
		}
	}
	if len(errs) == 0 || !a.cfg.ML.FailOnProbeFail {
		return nil
	}
	return errors.Join(errs...)
}

// Serve runs the HTTP API and the retention sweeper until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.Probe(ctx); err != nil {
		return err
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start retention sweeper: %w", err)
	}

	e := api.NewServer(api.Deps{
		Service: a.pipeline,
		Audio:   a.audio,
		Metrics: a.metrics.Handler(),
		Logger:  a.logger.With("component", "http"),
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting http server", "address", a.cfg.HTTP.Addr)
		if err := e.Start(a.cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.sweeper.Stop(shutdownCtx); err != nil {
			a.logger.Warn("stop retention sweeper", "error", err)
		}
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Fetch performs a single run and, when narrate is set, the audio pass.
func (a *Application) Fetch(ctx context.Context, company string, narrate bool) (FetchResult, error) {
	if err := a.Probe(ctx); err != nil {
		return FetchResult{}, err
	}

	run, err := a.pipeline.Run(ctx, company)
	if err != nil {
		return FetchResult{}, err
	}
	result := FetchResult{Run: run}
	if !narrate || len(run.Records) == 0 {
		return result, nil
	}

	result.Audio, err = a.pipeline.Narrate(ctx, run)
	if err != nil {
		return FetchResult{}, err
	}
	return result, nil
}

// Close waits for pending digests, then releases the archive connection pool.
func (a *Application) Close() error {
	if a.pipeline != nil {
		a.pipeline.Wait()
	}
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
