package lineitems

import (
	"errors"
	"testing"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func scored(rows [][]string) domain.ScoredTable {
	return domain.ScoredTable{
		Table: domain.RawTable{Strategy: domain.StrategyStream, Page: 1, Rows: rows},
		Score: 50,
	}
}

func TestExtractNoTables(t *testing.T) {
	if _, err := Extract(nil); !errors.Is(err, domain.ErrNoTables) {
		t.Fatalf("expected ErrNoTables, got %v", err)
	}
}

func TestExtractNoLineItems(t *testing.T) {
	headerless := scored([][]string{
		{"foo", "bar", "baz"},
		{"125.00", "40.00", "0.00"},
	})

	if _, err := Extract([]domain.ScoredTable{headerless}); !errors.Is(err, domain.ErrNoLineItems) {
		t.Fatalf("expected ErrNoLineItems, got %v", err)
	}
}

func TestExtractSkipsShortRows(t *testing.T) {
	table := scored([][]string{
		{"ITEM", "DESCRIPTION", "RATE"},
		{"GOS218NVOT", "JACKET HIP", "0.750"},
		{"GOS219NVOT", "SHIRT WORK"}, // shorter than the highest mapped column
		{"PNT410CHAR", "PANT WORK", "0.500"},
	})

	items, err := Extract([]domain.ScoredTable{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected short row skipped, got %d items", len(items))
	}
	if items[0].ItemCode != "GOS218NVOT" || items[1].ItemCode != "PNT410CHAR" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestExtractAccumulatesAcrossTables(t *testing.T) {
	first := scored([][]string{
		{"ITEM", "DESCRIPTION", "RATE"},
		{"GOS218NVOT", "JACKET HIP", "0.750"},
	})
	second := scored([][]string{
		{"ITEM", "DESCRIPTION", "RATE"},
		{"SHP130NV", "SHOP TOWEL", "0.080"},
	})

	items, err := Extract([]domain.ScoredTable{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ItemCode != "GOS218NVOT" || items[1].ItemCode != "SHP130NV" {
		t.Fatal("expected table order preserved")
	}
}
