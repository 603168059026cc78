// Package pdftext renders stored PDF invoices into plain text and raw
// candidate tables. It is a thin provider: scoring and reconciliation of
// its output happen in the core pipeline.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
	"github.com/kirillkom/invoice-audit/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) ExtractText(ctx context.Context, inv *domain.Invoice) (string, domain.InvoiceMetadata, error) {
	reader, err := e.open(ctx, inv)
	if err != nil {
		return "", domain.InvoiceMetadata{}, err
	}

	var b strings.Builder
	for _, page := range pageWords(reader) {
		for _, line := range page {
			b.WriteString(joinWords(line))
			b.WriteByte('\n')
		}
	}
	text := b.String()
	return text, parseMetadata(text), nil
}

func (e *Extractor) ExtractTables(ctx context.Context, inv *domain.Invoice, strategy domain.Strategy) ([]domain.RawTable, error) {
	reader, err := e.open(ctx, inv)
	if err != nil {
		return nil, err
	}

	var out []domain.RawTable
	for pageNum, lines := range pageWords(reader) {
		var rows [][]string
		switch strategy {
		case domain.StrategyLattice:
			rows = latticeRows(lines)
		default:
			rows = streamRows(lines)
		}
		for _, t := range splitTables(rows) {
			out = append(out, domain.RawTable{
				Strategy: strategy,
				Page:     pageNum + 1,
				Rows:     t,
			})
		}
	}
	return out, nil
}

func (e *Extractor) open(ctx context.Context, inv *domain.Invoice) (*pdf.Reader, error) {
	source, err := e.storage.Open(ctx, inv.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer source.Close()

	raw, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", inv.Filename, err)
	}
	return reader, nil
}

// word is one positioned text chunk on a page.
type word struct {
	x float64
	s string
}

// pageWords returns, per page, the text chunks grouped into visual lines
// in top-to-bottom, left-to-right order.
func pageWords(reader *pdf.Reader) [][][]word {
	pages := make([][][]word, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, nil)
			continue
		}

		lines := make([][]word, 0, len(rows))
		for _, row := range rows {
			line := make([]word, 0, len(row.Content))
			for _, t := range row.Content {
				if strings.TrimSpace(t.S) == "" {
					continue
				}
				line = append(line, word{x: t.X, s: t.S})
			}
			if len(line) > 0 {
				lines = append(lines, line)
			}
		}
		pages = append(pages, lines)
	}
	return pages
}

func joinWords(line []word) string {
	parts := make([]string, 0, len(line))
	for _, w := range line {
		parts = append(parts, w.s)
	}
	return strings.Join(parts, " ")
}
