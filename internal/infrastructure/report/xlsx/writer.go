// Package xlsx renders per-invoice validation reports as spreadsheets for
// the accounts-payable reviewers.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

const (
	sheetLineItems = "Line Items"
	sheetResults   = "Validation"
	sheetSummary   = "Summary"
)

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(out io.Writer, inv *domain.Invoice, results []domain.ValidationResult, summary domain.ValidationSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetLineItems)
	if err := w.writeLineItems(f, inv); err != nil {
		return err
	}
	if err := w.writeResults(f, results); err != nil {
		return err
	}
	if err := w.writeSummary(f, inv, summary); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *Writer) writeLineItems(f *excelize.File, inv *domain.Invoice) error {
	header := []any{"Line", "Wearer", "Item Code", "Description", "Size", "Type", "Qty", "Rate", "Total"}
	if err := setRow(f, sheetLineItems, 1, header); err != nil {
		return err
	}

	for i, item := range inv.LineItems {
		row := []any{
			item.LineNumber, item.Wearer, item.ItemCode, item.Description,
			item.Size, item.ItemType, item.Quantity,
			floatOrBlank(item.Rate), floatOrBlank(item.Total),
		}
		if err := setRow(f, sheetLineItems, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeResults(f *excelize.File, results []domain.ValidationResult) error {
	if _, err := f.NewSheet(sheetResults); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetResults, err)
	}
	header := []any{"Line", "Valid", "Severity", "Anomaly", "Field", "Message"}
	if err := setRow(f, sheetResults, 1, header); err != nil {
		return err
	}

	for i, r := range results {
		row := []any{r.LineNumber, r.Valid, string(r.Severity), string(r.Anomaly), r.Field, r.Message}
		if err := setRow(f, sheetResults, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSummary(f *excelize.File, inv *domain.Invoice, summary domain.ValidationSummary) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetSummary, err)
	}

	rows := [][]any{
		{"Invoice Number", inv.InvoiceNumber},
		{"Invoice Date", inv.InvoiceDate},
		{"Customer", inv.CustomerID},
		{"Total Parts", summary.Total},
		{"Passed", summary.Passed},
		{"Failed", summary.Failed},
		{"Unknown", summary.Unknown},
	}
	for _, s := range inv.Sections {
		rows = append(rows, []any{string(s.Kind), s.Amount})
	}

	for i, row := range rows {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
