package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-autofill/internal/adapters/actions"
	"github.com/kirillkom/invoice-autofill/internal/config"
	"github.com/kirillkom/invoice-autofill/internal/core/form"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
	"github.com/kirillkom/invoice-autofill/internal/core/usecase"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/extractor/dom"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/fetch"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/llm/openai"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/transfer/wise"
)

type App struct {
	Config config.Config

	Schema     *form.Schema
	Dispatcher *actions.Dispatcher
	Extractor  ports.InvoiceExtractor
	Documents  ports.DocumentService
	Settings   ports.SettingsService
	Transfers  ports.TransferService

	closeFn func()
}

// New wires the pipeline. observer may be nil.
func New(ctx context.Context, cfg config.Config, observer actions.Observer) (*App, error) {
	executor := resilience.NewExecutor(breakerConfig(cfg))

	store, closeStore, err := newSettingsStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ai, err := newFieldExtractor(cfg, executor)
	if err != nil {
		closeStore()
		return nil, err
	}

	pages := dom.New(dom.Options{MinChars: cfg.DOMMinChars, MaxHTMLChars: cfg.MaxHTMLChars})
	recoverer := pdftext.New(pdftext.Options{StructuredEnabled: cfg.PDFStructuredEnabled, MinChars: cfg.PDFMinChars})
	fetcher := fetch.New(executor, cfg.FetchMaxBytes)
	schema := form.DefaultSchema()
	transferClient := wise.New(wise.Config{
		BaseURL:        cfg.WiseBaseURL,
		Token:          cfg.WiseToken,
		ProfileID:      cfg.WiseProfileID,
		SourceCurrency: cfg.WiseSourceCurrency,
	}, executor)

	extractUC := usecase.NewExtractInvoiceUseCase(pages, fetcher, recoverer, recoverer, ai, store, usecase.ExtractOptions{
		FallbackAPIKey: cfg.AIAPIKey,
		InlinePDF:      cfg.AIInlinePDF,
		Schema:         schema,
	})
	documentUC := usecase.NewDocumentUseCase(fetcher, recoverer)
	settingsUC := usecase.NewSettingsUseCase(store, cfg.AIAPIKey)
	transferUC := usecase.NewTransferUseCase(schema, transferClient)

	slog.Info("pipeline_ready",
		"ai_provider", cfg.AIProvider,
		"settings_backend", cfg.SettingsBackend,
		"pdf_structured", cfg.PDFStructuredEnabled,
		"breaker", cfg.BreakerEnabled,
	)

	return &App{
		Config:     cfg,
		Schema:     schema,
		Dispatcher: actions.NewDispatcher(extractUC, documentUC, settingsUC, transferUC, observer),
		Extractor:  extractUC,
		Documents:  documentUC,
		Settings:   settingsUC,
		Transfers:  transferUC,
		closeFn:    closeStore,
	}, nil
}

// ConnectBus opens the NATS action subject. The caller owns the returned bus.
func ConnectBus(cfg config.Config) (*nats.Bus, error) {
	bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(breakerConfig(cfg)),
	})
	if err != nil {
		return nil, fmt.Errorf("init message bus: %w", err)
	}
	return bus, nil
}

func breakerConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		Enabled:     cfg.BreakerEnabled,
		MinRequests: uint32(max(cfg.BreakerMinRequests, 0)),
		OpenTimeout: cfg.BreakerOpenTimeout,
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newSettingsStore(ctx context.Context, cfg config.Config) (ports.SettingsStore, func(), error) {
	switch cfg.SettingsBackend {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewSettingsRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, closeDB(db), nil
	case "file", "":
		store, err := localfs.New(cfg.SettingsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("init settings file: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func newFieldExtractor(cfg config.Config, executor *resilience.Executor) (ports.FieldExtractor, error) {
	switch cfg.AIProvider {
	case "openai", "":
		return openai.New(cfg.AIBaseURL, cfg.AIModel, executor), nil
	case "gemini":
		return gemini.New(cfg.AIBaseURL, cfg.AIModel, executor), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}
