package lineitems

import (
	"testing"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func TestFindHeader(t *testing.T) {
	table := domain.RawTable{Rows: [][]string{
		{"ACME UNIFORM SERVICES", "", ""},
		{"INVOICE 12345", "01/15/2026", ""},
		{"WEARER", "ITEM", "DESCRIPTION", "QTY", "RATE"},
		{"John Smith", "GOS218NVOT", "JACKET HIP", "2", "0.750"},
	}}

	idx, ok := FindHeader(table)
	if !ok {
		t.Fatal("expected a header row")
	}
	if idx != 2 {
		t.Fatalf("expected header at row 2, got %d", idx)
	}
}

func TestFindHeaderAbsent(t *testing.T) {
	table := domain.RawTable{Rows: [][]string{
		{"foo", "bar"},
		{"125.00", "40.00"},
	}}

	if _, ok := FindHeader(table); ok {
		t.Fatal("expected no header in vocabulary-free table")
	}
}

func TestMapColumnsCombinedFormsTakePrecedence(t *testing.T) {
	mapping := MapColumns([]string{"ITEM CODE", "ITEM DESCRIPTION", "TYPE", "QTY", "RATE", "TOTAL"})

	want := domain.ColumnMapping{
		domain.FieldItemCode:    0,
		domain.FieldDescription: 1,
		domain.FieldType:        2,
		domain.FieldQuantity:    3,
		domain.FieldRate:        4,
		domain.FieldTotal:       5,
	}
	assertMapping(t, mapping, want)
}

func TestMapColumnsLoneForms(t *testing.T) {
	mapping := MapColumns([]string{"WEARER", "ITEM", "DESCRIPTION", "SIZE", "QUANTITY"})

	want := domain.ColumnMapping{
		domain.FieldWearer:      0,
		domain.FieldItemCode:    1,
		domain.FieldDescription: 2,
		domain.FieldSize:        3,
		domain.FieldQuantity:    4,
	}
	assertMapping(t, mapping, want)
}

func TestMapColumnsFirstMatchWins(t *testing.T) {
	mapping := MapColumns([]string{"RATE", "DESCRIPTION", "RATE"})

	if got := mapping[domain.FieldRate]; got != 0 {
		t.Fatalf("expected first RATE column to win, got index %d", got)
	}
}

func TestMapColumnsTypeMisalignmentCorrection(t *testing.T) {
	header := []string{"ITEM", "DESCRIPTION", "", "TYPE", "RATE"}

	mapping := MapColumns(header)
	if got := mapping[domain.FieldType]; got != 2 {
		t.Fatalf("expected type re-pointed to the blank predecessor column, got %d", got)
	}

	// Reapplying to the same header must not shift type again.
	again := MapColumns(header)
	if again[domain.FieldType] != mapping[domain.FieldType] {
		t.Fatal("correction is not idempotent")
	}
}

func TestMapColumnsNoCorrectionWithFilledNeighbor(t *testing.T) {
	mapping := MapColumns([]string{"ITEM", "DESCRIPTION", "TYPE", "RATE"})

	if got := mapping[domain.FieldType]; got != 2 {
		t.Fatalf("expected type untouched at 2, got %d", got)
	}
}

func assertMapping(t *testing.T, got, want domain.ColumnMapping) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("mapping size mismatch: got %v, want %v", got, want)
	}
	for field, idx := range want {
		if got[field] != idx {
			t.Fatalf("field %s: got index %d, want %d", field, got[field], idx)
		}
	}
}
