package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
	"github.com/kirillkom/invoice-audit/internal/core/lineitems"
	"github.com/kirillkom/invoice-audit/internal/core/ports"
	"github.com/kirillkom/invoice-audit/internal/core/tables"
)

// ProcessInvoiceUseCase runs the full pipeline for one invoice: text and
// table extraction, candidate scoring, strategy reconciliation, line-item
// extraction, and price validation. Stages run synchronously; each fully
// consumes its predecessor's output.
type ProcessInvoiceUseCase struct {
	repo      ports.InvoiceRepository
	text      ports.TextExtractor
	tableSrc  ports.TableExtractor
	scorer    *tables.Scorer
	validator *ValidateInvoiceUseCase
}

func NewProcessInvoiceUseCase(
	repo ports.InvoiceRepository,
	text ports.TextExtractor,
	tableSrc ports.TableExtractor,
	scorer *tables.Scorer,
	validator *ValidateInvoiceUseCase,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		repo:      repo,
		text:      text,
		tableSrc:  tableSrc,
		scorer:    scorer,
		validator: validator,
	}
}

func (uc *ProcessInvoiceUseCase) ProcessByID(ctx context.Context, invoiceID string) (domain.PipelineStats, error) {
	if err := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusProcessing, ""); err != nil {
		return domain.PipelineStats{}, fmt.Errorf("set status=processing: %w", err)
	}

	res, err := uc.pipeline(ctx, invoiceID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusFailed, err.Error()); failErr != nil {
			return domain.PipelineStats{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.PipelineStats{}, err
	}

	if err := uc.repo.SaveResults(ctx, res.invoice, res.output.Results, res.output.Summary); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusFailed, err.Error()); failErr != nil {
			return domain.PipelineStats{}, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return domain.PipelineStats{}, fmt.Errorf("save validation results: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusValidated, ""); err != nil {
		return domain.PipelineStats{}, fmt.Errorf("set status=validated: %w", err)
	}
	return res.stats, nil
}

type pipelineResult struct {
	invoice *domain.Invoice
	output  ValidationOutput
	stats   domain.PipelineStats
}

func (uc *ProcessInvoiceUseCase) pipeline(ctx context.Context, invoiceID string) (pipelineResult, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return pipelineResult{}, fmt.Errorf("fetch invoice by id: %w", err)
	}

	text, meta, err := uc.text.ExtractText(ctx, inv)
	if err != nil {
		return pipelineResult{}, fmt.Errorf("extract text: %w", err)
	}
	inv.RawText = text
	applyMetadata(inv, meta)

	kept, rejected, err := uc.reconcileTables(ctx, inv)
	if err != nil {
		return pipelineResult{}, err
	}

	items, err := lineitems.Extract(kept)
	if err != nil {
		return pipelineResult{}, domain.WrapError(err, "extract line items",
			fmt.Errorf("invoice %s", inv.ID))
	}
	inv.LineItems = items
	if !inv.StructurallyValid() {
		inv.Notes = append(inv.Notes, "document incomplete: invoice number, date, or summary sections missing")
	}

	output, err := uc.validator.Validate(ctx, inv)
	if err != nil {
		return pipelineResult{}, fmt.Errorf("validate line items: %w", err)
	}

	inv.UpdatedAt = time.Now().UTC()
	return pipelineResult{
		invoice: inv,
		output:  output,
		stats: domain.PipelineStats{
			LineItems:      len(items),
			RejectedTables: rejected,
			Outcomes:       countOutcomes(output.Results),
			Summary:        output.Summary,
		},
	}, nil
}

// reconcileTables scores both strategies' candidates and selects one set.
// Hard-rejected candidates are counted per strategy and recorded as
// invoice notes.
func (uc *ProcessInvoiceUseCase) reconcileTables(ctx context.Context, inv *domain.Invoice) ([]domain.ScoredTable, map[domain.Strategy]int, error) {
	lattice, err := uc.scoreStrategy(ctx, inv, domain.StrategyLattice)
	if err != nil {
		return nil, nil, err
	}
	stream, err := uc.scoreStrategy(ctx, inv, domain.StrategyStream)
	if err != nil {
		return nil, nil, err
	}

	rejected := make(map[domain.Strategy]int)
	for _, result := range []tables.StrategyResult{lattice, stream} {
		for _, c := range result.Candidates {
			if !c.Rejected {
				continue
			}
			rejected[c.Table.Strategy]++
			inv.Notes = append(inv.Notes, fmt.Sprintf(
				"discarded %s candidate on page %d as non-line-item content",
				c.Table.Strategy, c.Table.Page))
		}
	}

	kept := tables.Reconcile(lattice, stream)
	if len(kept) == 0 {
		return nil, nil, domain.WrapError(domain.ErrNoTables, "reconcile tables",
			fmt.Errorf("invoice %s", inv.ID))
	}
	return kept, rejected, nil
}

func countOutcomes(results []domain.ValidationResult) map[domain.AnomalyKind]int {
	outcomes := make(map[domain.AnomalyKind]int, len(results))
	for _, r := range results {
		outcomes[r.Anomaly]++
	}
	return outcomes
}

func (uc *ProcessInvoiceUseCase) scoreStrategy(ctx context.Context, inv *domain.Invoice, strategy domain.Strategy) (tables.StrategyResult, error) {
	raw, err := uc.tableSrc.ExtractTables(ctx, inv, strategy)
	if err != nil {
		return tables.StrategyResult{}, fmt.Errorf("extract tables (%s): %w", strategy, err)
	}
	result := tables.StrategyResult{Strategy: strategy}
	for _, t := range raw {
		result.Candidates = append(result.Candidates, uc.scorer.Score(t))
	}
	return result, nil
}

func applyMetadata(inv *domain.Invoice, meta domain.InvoiceMetadata) {
	inv.InvoiceNumber = meta.InvoiceNumber
	inv.InvoiceDate = meta.InvoiceDate
	inv.CustomerID = meta.CustomerID
	inv.AccountNumber = meta.AccountNumber
	inv.Sections = meta.Sections
}
