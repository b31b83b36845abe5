// Package bootstrap wires configuration into the document pipeline's
// adapters and use cases.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paperledger/docpipe/internal/config"
	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/core/ports"
	"github.com/paperledger/docpipe/internal/core/usecase"
	"github.com/paperledger/docpipe/internal/infrastructure/detector/anthropic"
	"github.com/paperledger/docpipe/internal/infrastructure/detector/heuristic"
	"github.com/paperledger/docpipe/internal/infrastructure/extractor"
	"github.com/paperledger/docpipe/internal/infrastructure/queue/nats"
	"github.com/paperledger/docpipe/internal/infrastructure/repository/postgres"
	"github.com/paperledger/docpipe/internal/infrastructure/resilience"
	"github.com/paperledger/docpipe/internal/infrastructure/storage/localfs"
	"github.com/paperledger/docpipe/internal/refdata"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	Router    ports.BillingRouter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	vendors := postgres.NewVendorRepository(db)
	audit := postgres.NewAuditRepository(db, logger)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	chart, err := loadChart(cfg.ChartPath)
	if err != nil {
		return nil, fmt.Errorf("load chart of accounts: %w", err)
	}

	classifier := usecase.NewGLAccountClassifier(chart, vendors, logger)
	engine := usecase.NewPaymentConsensusEngine(logger, buildDetectors(cfg)...)
	router := usecase.NewBillingRouter(enabledDestinations(cfg), cfg.RoutingConfidenceThreshold, audit, logger)

	extract := extractor.New(logger)
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, extract, classifier, engine, router, audit, logger)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Router:    router,

		closeFn: func() {
			queue.Close()
			audit.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadChart(path string) (*refdata.Chart, error) {
	if path == "" {
		return refdata.DefaultChart()
	}
	return refdata.LoadChart(path)
}

// buildDetectors assembles the detector set. The heuristics are always
// available; the Anthropic detectors join only when an API key is present.
// DETECTORS_ENABLED narrows the set further; empty means everything built.
func buildDetectors(cfg config.Config) []ports.PaymentDetector {
	detectors := []ports.PaymentDetector{
		heuristic.NewRegexDetector(),
		heuristic.NewKeywordDetector(),
		heuristic.NewAmountDetector(),
	}

	if cfg.AnthropicAPIKey != "" {
		client := anthropic.New(cfg.AnthropicAPIKey, anthropic.Options{
			BaseURL:           cfg.AnthropicBaseURL,
			Model:             cfg.AnthropicModel,
			RequestsPerSecond: cfg.AnthropicRPS,
		})
		detectors = append(detectors, anthropic.NewTextDetector(client), anthropic.NewVisionDetector(client))
	}

	if len(cfg.DetectorsEnabled) == 0 {
		return detectors
	}
	allowed := make(map[domain.DetectionMethod]bool, len(cfg.DetectorsEnabled))
	for _, name := range cfg.DetectorsEnabled {
		allowed[domain.DetectionMethod(name)] = true
	}
	filtered := detectors[:0]
	for _, d := range detectors {
		if allowed[d.Method()] {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func enabledDestinations(cfg config.Config) []domain.Destination {
	if len(cfg.DestinationsEnabled) == 0 {
		return nil
	}
	out := make([]domain.Destination, 0, len(cfg.DestinationsEnabled))
	for _, name := range cfg.DestinationsEnabled {
		out = append(out, domain.Destination(name))
	}
	return out
}
