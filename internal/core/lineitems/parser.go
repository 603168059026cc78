package lineitems

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// ParseRow converts one data row into zero or more line items. A cell
// containing embedded line breaks represents stacked sub-records; such a
// row is expanded into one synthetic row per sub-record before parsing.
// Rows that cannot resolve both a description and a rate are dropped:
// both are mandatory for a row to count as billable.
func ParseRow(row []string, mapping domain.ColumnMapping, lineNumber int) []domain.LineItem {
	if !multiRecord(row) {
		item, ok := parseSingle(row, mapping, strconv.Itoa(lineNumber))
		if !ok {
			return nil
		}
		return []domain.LineItem{item}
	}

	items := make([]domain.LineItem, 0, 2)
	for i, sub := range expandRow(row) {
		subLine := fmt.Sprintf("%d.%d", lineNumber, i+1)
		if item, ok := parseSingle(sub, mapping, subLine); ok {
			items = append(items, item)
		}
	}
	return items
}

func multiRecord(row []string) bool {
	for _, cell := range row {
		if strings.Contains(cell, "\n") {
			return true
		}
	}
	return false
}

// expandRow is a transpose-and-pad over parallel arrays: every cell is
// split on line breaks, the sub-record count is the maximum split count in
// the row, single-valued cells repeat verbatim across all sub-records, and
// multi-valued cells with fewer segments than the maximum pad with the
// empty string.
func expandRow(row []string) [][]string {
	segments := make([][]string, len(row))
	count := 1
	for i, cell := range row {
		if !strings.Contains(cell, "\n") {
			continue
		}
		parts := strings.Split(cell, "\n")
		kept := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				kept = append(kept, trimmed)
			}
		}
		segments[i] = kept
		if len(kept) > count {
			count = len(kept)
		}
	}

	out := make([][]string, count)
	for k := 0; k < count; k++ {
		sub := make([]string, len(row))
		for i, cell := range row {
			switch {
			case segments[i] == nil:
				sub[i] = cell
			case k < len(segments[i]):
				sub[i] = segments[i][k]
			default:
				sub[i] = ""
			}
		}
		out[k] = sub
	}
	return out
}

func parseSingle(row []string, mapping domain.ColumnMapping, lineNumber string) (domain.LineItem, bool) {
	item := domain.LineItem{
		LineNumber:  lineNumber,
		Wearer:      cellAt(row, mapping, domain.FieldWearer),
		ItemCode:    cellAt(row, mapping, domain.FieldItemCode),
		Description: cellAt(row, mapping, domain.FieldDescription),
		Size:        cellAt(row, mapping, domain.FieldSize),
		ItemType:    cellAt(row, mapping, domain.FieldType),
		Quantity:    1,
		Rate:        parseDecimal(cellAt(row, mapping, domain.FieldRate)),
		Total:       parseDecimal(cellAt(row, mapping, domain.FieldTotal)),
		RawText:     strings.Join(row, " | "),
	}

	// A parsed quantity is taken at face value, zero included; the default
	// of 1 applies only when the column is absent or unparsable.
	if qty := parseDecimal(cellAt(row, mapping, domain.FieldQuantity)); qty != nil {
		item.Quantity = *qty
	}

	if item.Description == "" || item.Rate == nil {
		return domain.LineItem{}, false
	}
	return item, true
}

func cellAt(row []string, mapping domain.ColumnMapping, field domain.Field) string {
	idx, ok := mapping[field]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseDecimal returns nil on malformed numeric text rather than failing
// the row; currency symbols and thousands separators are tolerated.
func parseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
