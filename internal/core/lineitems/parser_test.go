package lineitems

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func rentalMapping() domain.ColumnMapping {
	return domain.ColumnMapping{
		domain.FieldWearer:      0,
		domain.FieldDescription: 1,
		domain.FieldItemCode:    2,
		domain.FieldType:        3,
		domain.FieldQuantity:    4,
		domain.FieldRate:        5,
		domain.FieldTotal:       6,
	}
}

func TestParseRowSingleRecord(t *testing.T) {
	row := []string{"2", "JACKET HIP EVIS 65/35", "GOS218NVOT", "Rent", "2", "0.750", "1.50"}

	items := ParseRow(row, rentalMapping(), 5)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.LineNumber != "5" {
		t.Errorf("line number: got %q", item.LineNumber)
	}
	if item.ItemCode != "GOS218NVOT" {
		t.Errorf("item code: got %q", item.ItemCode)
	}
	if item.Description != "JACKET HIP EVIS 65/35" {
		t.Errorf("description: got %q", item.Description)
	}
	if item.ItemType != "Rent" {
		t.Errorf("item type: got %q", item.ItemType)
	}
	if item.Quantity != 2 {
		t.Errorf("quantity: got %v", item.Quantity)
	}
	if item.Rate == nil || *item.Rate != 0.750 {
		t.Errorf("rate: got %v", item.Rate)
	}
	if item.Total == nil || *item.Total != 1.50 {
		t.Errorf("total: got %v", item.Total)
	}
	if item.RawText == "" {
		t.Error("raw text must carry the source row")
	}
}

func TestParseRowMultiRecordCell(t *testing.T) {
	row := []string{
		"John Smith",
		"SHIRT WORK LS\nPANT WORK\nJACKET HIP",
		"SHT100NV\nPNT410CH\nGOS218NV",
		"Rent",
		"5\n5\n1",
		"0.450\n0.500\n0.750",
		"2.25\n2.50\n0.75",
	}

	items := ParseRow(row, rentalMapping(), 4)
	if len(items) != 3 {
		t.Fatalf("expected 3 sub-records, got %d", len(items))
	}

	wantLines := []string{"4.1", "4.2", "4.3"}
	wantCodes := []string{"SHT100NV", "PNT410CH", "GOS218NV"}
	wantRates := []float64{0.450, 0.500, 0.750}
	for i, item := range items {
		if item.LineNumber != wantLines[i] {
			t.Errorf("item %d line number: got %q, want %q", i, item.LineNumber, wantLines[i])
		}
		if item.ItemCode != wantCodes[i] {
			t.Errorf("item %d code: got %q", i, item.ItemCode)
		}
		if item.Rate == nil || *item.Rate != wantRates[i] {
			t.Errorf("item %d rate: got %v", i, item.Rate)
		}
		// Single-valued cells repeat across every sub-record.
		if item.Wearer != "John Smith" {
			t.Errorf("item %d wearer: got %q", i, item.Wearer)
		}
		if item.ItemType != "Rent" {
			t.Errorf("item %d type: got %q", i, item.ItemType)
		}
	}
}

func TestParseRowMultiRecordPadding(t *testing.T) {
	// Three descriptions but only two rates: the third sub-record pads its
	// rate with the empty string and is dropped as unbillable.
	row := []string{
		"Mary Jones",
		"SHIRT WORK LS\nPANT WORK\nJACKET HIP",
		"SHT100NV\nPNT410CH\nGOS218NV",
		"Rent",
		"5\n5\n1",
		"0.450\n0.500",
		"",
	}

	items := ParseRow(row, rentalMapping(), 9)
	if len(items) != 2 {
		t.Fatalf("expected padded sub-record to be dropped, got %d items", len(items))
	}
	if items[0].LineNumber != "9.1" || items[1].LineNumber != "9.2" {
		t.Fatalf("unexpected line numbers %q, %q", items[0].LineNumber, items[1].LineNumber)
	}
}

func TestParseRowDropsUnbillable(t *testing.T) {
	mapping := rentalMapping()

	noDescription := []string{"2", "", "GOS218NVOT", "Rent", "2", "0.750", "1.50"}
	if items := ParseRow(noDescription, mapping, 1); len(items) != 0 {
		t.Fatalf("expected row without description to be dropped, got %d items", len(items))
	}

	noRate := []string{"2", "JACKET HIP", "GOS218NVOT", "Rent", "2", "n/a", "1.50"}
	if items := ParseRow(noRate, mapping, 1); len(items) != 0 {
		t.Fatalf("expected row with malformed rate to be dropped, got %d items", len(items))
	}
}

// Splitting an item's raw text back into cells and reparsing it with the
// same mapping must reproduce the item exactly, malformed numerics
// included.
func TestParseRowRawTextRoundTrip(t *testing.T) {
	rows := [][]string{
		{"2", "JACKET HIP EVIS 65/35", "GOS218NVOT", "Rent", "2", "0.750", "1.50"},
		{"2", "JACKET HIP", "GOS218NVOT", "Rent", "many", "$1,234.56", "bad"},
		{
			"John Smith",
			"SHIRT WORK LS\nPANT WORK",
			"SHT100NV\nPNT410CH",
			"Rent",
			"5\n5",
			"0.450\n0.500",
			"2.25\n2.50",
		},
	}

	mapping := rentalMapping()
	for _, row := range rows {
		for _, item := range ParseRow(row, mapping, 7) {
			reparsed := ParseRow(strings.Split(item.RawText, " | "), mapping, 7)
			if len(reparsed) != 1 {
				t.Fatalf("raw text %q: expected 1 reparsed item, got %d", item.RawText, len(reparsed))
			}
			// Sub-record ids are assigned during expansion; the reparsed
			// single row carries the plain line number.
			got := reparsed[0]
			got.LineNumber = item.LineNumber
			if !reflect.DeepEqual(got, item) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, item)
			}
		}
	}
}

func TestParseRowKeepsParsedZeroQuantity(t *testing.T) {
	row := []string{"2", "JACKET HIP", "GOS218NVOT", "Rent", "0", "0.750", "0.00"}

	items := ParseRow(row, rentalMapping(), 1)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Quantity != 0 {
		t.Errorf("parsed zero quantity must be kept, got %v", items[0].Quantity)
	}
}

func TestParseRowNumericTolerance(t *testing.T) {
	row := []string{"2", "JACKET HIP", "GOS218NVOT", "Rent", "many", "$1,234.56", "bad"}

	items := ParseRow(row, rentalMapping(), 1)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Quantity != 1 {
		t.Errorf("unparsable quantity must default to 1, got %v", item.Quantity)
	}
	if item.Rate == nil || *item.Rate != 1234.56 {
		t.Errorf("expected currency symbols and separators stripped, got %v", item.Rate)
	}
	if item.Total != nil {
		t.Errorf("malformed total must be nulled, got %v", *item.Total)
	}
}
