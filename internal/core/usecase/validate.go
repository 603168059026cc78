package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
	"github.com/kirillkom/invoice-audit/internal/core/ports"
)

// Tolerances carries the price-check thresholds. The critical escalation
// values are empirically tuned and deliberately overridable rather than
// derived.
type Tolerances struct {
	// Price is the allowed absolute difference between the extracted rate
	// and the authorized price.
	Price float64
	// CriticalAbsolute escalates a discrepancy to critical when the
	// absolute difference meets it.
	CriticalAbsolute float64
	// CriticalPercent escalates a discrepancy to critical when the
	// difference relative to the authorized price meets it (0.5 = 50%).
	CriticalPercent float64
	// Sections is the allowed difference in the subtotal+freight+tax=total
	// cross-check.
	Sections float64
	// SectionsCritical escalates a section mismatch to critical.
	SectionsCritical float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		Price:            0.01,
		CriticalAbsolute: 1.00,
		CriticalPercent:  0.5,
		Sections:         0.01,
		SectionsCritical: 1.00,
	}
}

// ValidationOutput is the full result set of one validation run.
type ValidationOutput struct {
	Results []domain.ValidationResult
	Summary domain.ValidationSummary
	Unknown []domain.UnknownPart
}

// ValidateInvoiceUseCase checks extracted line items against the catalog.
// Classification outcomes are data, not errors: only catalog
// infrastructure failures abort a run.
type ValidateInvoiceUseCase struct {
	catalog ports.CatalogStore
	tol     Tolerances
	mode    domain.DiscoveryMode
}

func NewValidateInvoiceUseCase(catalog ports.CatalogStore, tol Tolerances, mode domain.DiscoveryMode) *ValidateInvoiceUseCase {
	if mode == "" {
		mode = domain.DiscoveryBatch
	}
	return &ValidateInvoiceUseCase{catalog: catalog, tol: tol, mode: mode}
}

func (uc *ValidateInvoiceUseCase) Validate(ctx context.Context, inv *domain.Invoice) (ValidationOutput, error) {
	var out ValidationOutput
	// Lookup cache scoped to this invoice only; a nil entry records a
	// confirmed miss.
	cache := make(map[string]*domain.CatalogEntry)

	for _, item := range inv.LineItems {
		entry, err := uc.resolve(ctx, cache, item)
		if err != nil {
			return ValidationOutput{}, fmt.Errorf("catalog lookup for %q: %w", item.ItemCode, err)
		}

		if entry == nil {
			result, unknown, err := uc.handleUnknown(ctx, cache, inv, item)
			if err != nil {
				return ValidationOutput{}, err
			}
			out.Results = append(out.Results, result)
			if unknown != nil {
				out.Unknown = append(out.Unknown, *unknown)
			}
			continue
		}

		out.Results = append(out.Results, uc.checkPrice(item, entry))
	}

	out.Summary = summarize(out.Results)

	if len(out.Unknown) > 0 && uc.mode == domain.DiscoveryBatch {
		if err := uc.catalog.SaveUnknown(ctx, out.Unknown); err != nil {
			return ValidationOutput{}, fmt.Errorf("record unknown parts: %w", err)
		}
	}

	if sectionResult, ok := uc.VerifyTotals(inv); ok {
		out.Results = append(out.Results, sectionResult)
	}

	return out, nil
}

// resolve looks an item up by composite identity first, then by code
// alone. Returns (nil, nil) on a confirmed miss.
func (uc *ValidateInvoiceUseCase) resolve(ctx context.Context, cache map[string]*domain.CatalogEntry, item domain.LineItem) (*domain.CatalogEntry, error) {
	if item.ItemCode == "" {
		return nil, nil
	}
	if entry, seen := cache[item.ItemCode]; seen {
		return entry, nil
	}

	entry, err := uc.catalog.Lookup(ctx, item.ItemType, item.Description, item.ItemCode)
	if err != nil && !domain.IsKind(err, domain.ErrPartNotFound) {
		return nil, err
	}
	if entry == nil {
		entry, err = uc.catalog.LookupByCode(ctx, item.ItemCode)
		if err != nil && !domain.IsKind(err, domain.ErrPartNotFound) {
			return nil, err
		}
	}

	cache[item.ItemCode] = entry
	return entry, nil
}

// handleUnknown classifies a line item with no catalog match. In
// interactive mode it attempts to create an entry from the discovered
// data; concurrent discovery of the same part across invoices means
// "already exists" is treated as success and re-resolved.
func (uc *ValidateInvoiceUseCase) handleUnknown(ctx context.Context, cache map[string]*domain.CatalogEntry, inv *domain.Invoice, item domain.LineItem) (domain.ValidationResult, *domain.UnknownPart, error) {
	unknown := &domain.UnknownPart{
		ItemCode:      item.ItemCode,
		Description:   item.Description,
		ItemType:      item.ItemType,
		Quantity:      item.Quantity,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		LineNumber:    item.LineNumber,
	}
	if item.Rate != nil {
		unknown.DiscoveredPrice = *item.Rate
	}

	if uc.mode == domain.DiscoveryInteractive && item.Valid() {
		created, err := uc.catalog.Create(ctx, &domain.CatalogEntry{
			ItemCode:    item.ItemCode,
			Description: item.Description,
			ItemType:    item.ItemType,
			Price:       *item.Rate,
			Active:      true,
		})
		switch {
		case err == nil:
			cache[item.ItemCode] = created
			return domain.ValidationResult{
				Valid:      true,
				Severity:   domain.SeverityInfo,
				Message:    fmt.Sprintf("part %s added to catalog at %.3f", item.ItemCode, *item.Rate),
				Field:      "item_code",
				LineNumber: item.LineNumber,
				Details:    map[string]any{"discovered_price": *item.Rate},
			}, nil, nil
		case domain.IsKind(err, domain.ErrPartExists):
			// Another run won the race. Drop the cached miss so the
			// re-resolve actually hits the catalog.
			delete(cache, item.ItemCode)
			entry, lookupErr := uc.resolve(ctx, cache, item)
			if lookupErr == nil && entry != nil {
				return uc.checkPrice(item, entry), nil, nil
			}
			// Fall through to the error-line record.
		default:
			// Creation failed; fall back to recording the part.
		}
	}

	return domain.ValidationResult{
		Valid:      false,
		Severity:   domain.SeverityWarning,
		Anomaly:    domain.AnomalyUnknownPart,
		Message:    fmt.Sprintf("part %s not found in catalog", item.ItemCode),
		Field:      "item_code",
		LineNumber: item.LineNumber,
		Details: map[string]any{
			"item_code":        item.ItemCode,
			"description":      item.Description,
			"discovered_price": unknown.DiscoveredPrice,
		},
	}, unknown, nil
}

func (uc *ValidateInvoiceUseCase) checkPrice(item domain.LineItem, entry *domain.CatalogEntry) domain.ValidationResult {
	if item.Rate == nil {
		return domain.ValidationResult{
			Valid:      false,
			Severity:   domain.SeverityWarning,
			Anomaly:    domain.AnomalyMissingPrice,
			Message:    fmt.Sprintf("no rate extracted for part %s", item.ItemCode),
			Field:      "rate",
			LineNumber: item.LineNumber,
		}
	}

	diff := math.Abs(*item.Rate - entry.Price)
	if diff <= uc.tol.Price {
		return domain.ValidationResult{
			Valid:      true,
			Severity:   domain.SeverityInfo,
			Message:    fmt.Sprintf("part %s priced within tolerance", item.ItemCode),
			Field:      "rate",
			LineNumber: item.LineNumber,
		}
	}

	severity := domain.SeverityWarning
	if diff >= uc.tol.CriticalAbsolute || (entry.Price > 0 && diff/entry.Price >= uc.tol.CriticalPercent) {
		severity = domain.SeverityCritical
	}
	return domain.ValidationResult{
		Valid:      false,
		Severity:   severity,
		Anomaly:    domain.AnomalyPriceDiscrepancy,
		Message:    fmt.Sprintf("part %s billed at %.3f, authorized %.3f", item.ItemCode, *item.Rate, entry.Price),
		Field:      "rate",
		LineNumber: item.LineNumber,
		Details: map[string]any{
			"billed_price":     *item.Rate,
			"authorized_price": entry.Price,
			"difference":       diff,
		},
	}
}

// VerifyTotals cross-checks the four summary sections: total must equal
// subtotal + freight + tax within tolerance. Reported only when all four
// sections were extracted.
func (uc *ValidateInvoiceUseCase) VerifyTotals(inv *domain.Invoice) (domain.ValidationResult, bool) {
	subtotal, okSub := inv.Section(domain.SectionSubtotal)
	freight, okFr := inv.Section(domain.SectionFreight)
	tax, okTax := inv.Section(domain.SectionTax)
	total, okTot := inv.Section(domain.SectionTotal)
	if !okSub || !okFr || !okTax || !okTot {
		return domain.ValidationResult{}, false
	}

	expected := subtotal.Amount + freight.Amount + tax.Amount
	diff := math.Abs(total.Amount - expected)
	if diff <= uc.tol.Sections {
		return domain.ValidationResult{
			Valid:    true,
			Severity: domain.SeverityInfo,
			Message:  "summary sections reconcile",
			Field:    "total",
		}, true
	}

	severity := domain.SeverityWarning
	if diff > uc.tol.SectionsCritical {
		severity = domain.SeverityCritical
	}
	return domain.ValidationResult{
		Valid:    false,
		Severity: severity,
		Anomaly:  domain.AnomalyTotalsMismatch,
		Message:  fmt.Sprintf("total %.2f does not match subtotal+freight+tax %.2f", total.Amount, expected),
		Field:    "total",
		Details: map[string]any{
			"total":    total.Amount,
			"expected": expected,
		},
	}, true
}

// summarize counts part-level outcomes. Unknown parts are excluded from
// the pass/fail counts.
func summarize(results []domain.ValidationResult) domain.ValidationSummary {
	var s domain.ValidationSummary
	for _, r := range results {
		s.Total++
		switch {
		case r.Anomaly == domain.AnomalyUnknownPart:
			s.Unknown++
		case r.Valid:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}
