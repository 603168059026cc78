package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-audit/internal/config"
	"github.com/kirillkom/invoice-audit/internal/core/domain"
	"github.com/kirillkom/invoice-audit/internal/core/ports"
	"github.com/kirillkom/invoice-audit/internal/core/tables"
	"github.com/kirillkom/invoice-audit/internal/core/usecase"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-audit/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Invoices  ports.InvoiceRepository
	Catalog   ports.CatalogStore
	Reports   ports.ReportWriter
	IngestUC  ports.InvoiceIngestor
	ProcessUC ports.InvoiceProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	invoices := postgres.NewInvoiceRepository(db)
	if err := invoices.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure invoice schema: %w", err)
	}
	catalog := postgres.NewCatalogRepository(db)
	if err := catalog.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure catalog schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	extractor := pdftext.New(storage)

	scorerCfg := tables.DefaultScorerConfig()
	scorerCfg.NameOverrideCount = cfg.ScorerNameOverrideCount
	scorer := tables.NewScorer(scorerCfg)

	tolerances := usecase.Tolerances{
		Price:            cfg.PriceTolerance,
		CriticalAbsolute: cfg.PriceCriticalAbsolute,
		CriticalPercent:  cfg.PriceCriticalPercent,
		Sections:         cfg.SectionTolerance,
		SectionsCritical: cfg.SectionCritical,
	}
	validator := usecase.NewValidateInvoiceUseCase(catalog, tolerances, domain.DiscoveryMode(cfg.DiscoveryMode))

	ingestUC := usecase.NewIngestInvoiceUseCase(invoices, storage, queue)
	processUC := usecase.NewProcessInvoiceUseCase(invoices, extractor, extractor, scorer, validator)

	return &App{
		Config: cfg,

		Queue:     queue,
		Invoices:  invoices,
		Catalog:   catalog,
		Reports:   xlsx.NewWriter(),
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
