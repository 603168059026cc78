// Package lineitems turns reconciled candidate tables into ordered,
// structured billable line items.
package lineitems

import (
	"strings"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// headerWords qualify a row as a header when at least minHeaderWords of
// them appear across its cells.
var headerWords = []string{
	"WEARER", "ITEM", "DESCRIPTION", "SIZE", "TYPE", "QTY",
	"RATE", "TOTAL", "RENT", "BILL", "QUANTITY", "AMOUNT", "PRICE",
}

const minHeaderWords = 3

// FindHeader scans rows top-to-bottom and returns the index of the first
// row containing at least minHeaderWords header-vocabulary words.
func FindHeader(t domain.RawTable) (int, bool) {
	for i, row := range t.Rows {
		combined := strings.ToUpper(strings.Join(row, " "))
		found := 0
		for _, word := range headerWords {
			if strings.Contains(combined, word) {
				found++
			}
		}
		if found >= minHeaderWords {
			return i, true
		}
	}
	return 0, false
}

// columnRule maps a header cell to a semantic field. Rules are evaluated
// top-to-bottom so the combined ITEM CODE / ITEM DESCRIPTION forms take
// precedence over a lone ITEM or DESCRIPTION.
type columnRule struct {
	field domain.Field
	match func(cell string) bool
}

var columnRules = []columnRule{
	{domain.FieldItemCode, func(c string) bool {
		return strings.Contains(c, "ITEM") && strings.Contains(c, "CODE")
	}},
	{domain.FieldDescription, func(c string) bool {
		return strings.Contains(c, "ITEM") && strings.Contains(c, "DESCRIPTION")
	}},
	{domain.FieldItemCode, func(c string) bool { return strings.Contains(c, "ITEM") }},
	{domain.FieldDescription, func(c string) bool { return strings.Contains(c, "DESCRIPTION") }},
	{domain.FieldRate, func(c string) bool { return strings.Contains(c, "RATE") }},
	{domain.FieldTotal, func(c string) bool { return strings.Contains(c, "TOTAL") }},
	{domain.FieldType, func(c string) bool { return strings.Contains(c, "TYPE") }},
	{domain.FieldQuantity, func(c string) bool {
		return strings.Contains(c, "QTY") || strings.Contains(c, "QUANTITY")
	}},
	{domain.FieldSize, func(c string) bool { return strings.Contains(c, "SIZE") }},
	{domain.FieldWearer, func(c string) bool { return strings.Contains(c, "WEARER") }},
}

// MapColumns assigns semantic fields to header cell positions. The first
// header cell matched for each field wins. A TYPE column whose left
// neighbor in the header is blank is re-pointed one column left: the TYPE
// label floats over an adjacent blank header cell while its data occupies
// the prior column. The correction is a no-op on an already corrected
// mapping.
func MapColumns(headerRow []string) domain.ColumnMapping {
	mapping := make(domain.ColumnMapping)
	for idx, cell := range headerRow {
		upper := strings.ToUpper(strings.TrimSpace(cell))
		if upper == "" {
			continue
		}
		for _, rule := range columnRules {
			if !rule.match(upper) {
				continue
			}
			if _, taken := mapping[rule.field]; !taken {
				mapping[rule.field] = idx
			}
			break
		}
	}

	if typeIdx, ok := mapping[domain.FieldType]; ok && typeIdx > 0 {
		if strings.TrimSpace(headerRow[typeIdx-1]) == "" {
			mapping[domain.FieldType] = typeIdx - 1
		}
	}
	return mapping
}
