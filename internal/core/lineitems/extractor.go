package lineitems

import (
	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// Extract runs header detection and row parsing over every surviving
// table, accumulating line items in table order then row order. Tables
// with no detectable header or no mapped field are skipped whole; rows
// shorter than the highest mapped column are skipped individually.
//
// An empty result is a hard failure: no line items is never silently
// accepted as a valid outcome for an invoice.
func Extract(candidates []domain.ScoredTable) ([]domain.LineItem, error) {
	if len(candidates) == 0 {
		return nil, domain.ErrNoTables
	}

	var items []domain.LineItem
	for _, candidate := range candidates {
		items = append(items, extractFromTable(candidate.Table)...)
	}
	if len(items) == 0 {
		return nil, domain.ErrNoLineItems
	}
	return items, nil
}

func extractFromTable(t domain.RawTable) []domain.LineItem {
	headerIdx, ok := FindHeader(t)
	if !ok {
		return nil
	}
	mapping := MapColumns(t.Rows[headerIdx])
	if len(mapping) == 0 {
		return nil
	}
	minWidth := mapping.MaxIndex() + 1

	var items []domain.LineItem
	for i := headerIdx + 1; i < len(t.Rows); i++ {
		row := t.Rows[i]
		if len(row) < minWidth {
			continue
		}
		items = append(items, ParseRow(row, mapping, i)...)
	}
	return items
}
