package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/enrich"
	"KhiphopPipeline/internal/infrastructure/debugmd"
	"KhiphopPipeline/internal/infrastructure/extractor"
	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/infrastructure/llm"
	"KhiphopPipeline/internal/infrastructure/parser"
	"KhiphopPipeline/internal/infrastructure/scheduler"
	"KhiphopPipeline/internal/infrastructure/spotify"
	"KhiphopPipeline/internal/infrastructure/storage"
	"KhiphopPipeline/internal/infrastructure/telegram"
	"KhiphopPipeline/internal/infrastructure/wordpress"
	"KhiphopPipeline/internal/logging"
	"KhiphopPipeline/internal/ports"
	"KhiphopPipeline/internal/scanner"
	"KhiphopPipeline/internal/usecase"
)

// ErrPublishDisabled is returned when WordPress credentials are missing.
var ErrPublishDisabled = errors.New("wordpress is not configured")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *storage.SQLiteRepository
	pipeline *usecase.Pipeline
	publish  *usecase.PublishFlow
}

// New opens the store and builds every adapter the configuration enables.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	repo, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	feedClient := httpx.New(httpx.WithUserAgent(cfg.Extractor.UserAgent), httpx.WithRateLimit(1))
	registry := scanner.NewRegistry()
	registry.Register(parser.NewRedditScanner(feedClient, baseLogger.With("component", "scanner.reddit")))
	source := parser.NewStrategySource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	categoryDeps := enrich.CategoryDeps{
		Extractor:   newExtractor(cfg.Extractor),
		SelfDomains: cfg.Extractor.SelfDomains,
		Logger:      baseLogger.With("component", "enrich.category"),
	}
	if cfg.Spotify.Enabled() {
		catalog := spotify.NewClient(cfg.Spotify, nil)
		categoryDeps.Catalog = catalog
		categoryDeps.Tokens = enrich.NewTokenCache(catalog)
	} else {
		baseLogger.Info("spotify credentials missing, catalog lookups disabled")
	}
	category := enrich.NewCategoryEnricher(categoryDeps)

	var chat ports.ChatClient
	if cfg.ChatGPT.APIKey != "" {
		chat = llm.NewChatGPTClient(cfg.ChatGPT, nil)
	}
	summary := enrich.NewSummaryEnricher(chat, baseLogger.With("component", "enrich.summary"))

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	var recorder ports.ItemRecorder
	if cfg.Debug.MarkdownDir != "" {
		recorder = debugmd.NewWriter(cfg.Debug.MarkdownDir)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Dedup:     repo,
		Staging:   repo,
		Enrichers: []ports.Enricher{category, summary},
		Recorder:  recorder,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	var publish *usecase.PublishFlow
	if cfg.WordPress.Enabled() {
		wp := wordpress.NewClient(cfg.WordPress, nil, baseLogger.With("component", "wordpress"))
		publish = usecase.NewPublishFlow(repo, wp, baseLogger.With("component", "publish"))
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		repo:     repo,
		pipeline: pipeline,
		publish:  publish,
	}, nil
}

func newExtractor(cfg config.ExtractorConfig) ports.ContentExtractor {
	if cfg.Mode == "placeholder" {
		return extractor.Placeholder{}
	}
	client := httpx.New(httpx.WithTimeout(15*time.Second), httpx.WithUserAgent(cfg.UserAgent), httpx.WithRetries(0, 0))
	return extractor.NewHTML(client, cfg.MaxChars)
}

// RunOnce executes a single pipeline pass.
func (a *Application) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	return a.pipeline.RunOnce(ctx)
}

// Serve runs the pipeline once, then on the configured cron schedule until
// ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	if _, err := a.pipeline.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		a.logger.Error("initial run failed", "error", err)
	}

	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Staged lists records awaiting a publish decision.
func (a *Application) Staged(ctx context.Context) ([]domain.StagedRecord, error) {
	return a.repo.List(ctx)
}

// Publish sends staged records to WordPress; an empty ids publishes everything.
func (a *Application) Publish(ctx context.Context, ids []string, status domain.PostStatus) (usecase.PublishReport, error) {
	if a.publish == nil {
		return usecase.PublishReport{}, ErrPublishDisabled
	}
	if status == "" {
		status = domain.PostDraft
		if a.cfg.WordPress.PublishImmediately {
			status = domain.PostPublish
		}
	}
	return a.publish.Publish(ctx, ids, status)
}

// Clear drops every processed id and staged record.
func (a *Application) Clear(ctx context.Context) error {
	return a.repo.ClearAll(ctx)
}

// Close releases the store.
func (a *Application) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
