package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026070202)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	invoice_number TEXT,
	invoice_date TEXT,
	customer_id TEXT,
	account_number TEXT,
	line_items JSONB NOT NULL DEFAULT '[]'::jsonb,
	sections JSONB NOT NULL DEFAULT '[]'::jsonb,
	notes JSONB NOT NULL DEFAULT '[]'::jsonb,
	results JSONB NOT NULL DEFAULT '[]'::jsonb,
	summary JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoices (id, filename, storage_path, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		inv.ID, inv.Filename, inv.StoragePath, string(inv.Status), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, storage_path, COALESCE(invoice_number, ''), COALESCE(invoice_date, ''),
	COALESCE(customer_id, ''), COALESCE(account_number, ''), line_items, sections, notes,
	status, COALESCE(error_message, ''), created_at, updated_at
FROM invoices
WHERE id = $1
`, id)

	var inv domain.Invoice
	var itemsRaw, sectionsRaw, notesRaw []byte
	var status string

	err := row.Scan(
		&inv.ID, &inv.Filename, &inv.StoragePath, &inv.InvoiceNumber, &inv.InvoiceDate,
		&inv.CustomerID, &inv.AccountNumber, &itemsRaw, &sectionsRaw, &notesRaw,
		&status, &inv.Error, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	if err := json.Unmarshal(itemsRaw, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	if err := json.Unmarshal(sectionsRaw, &inv.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(notesRaw, &inv.Notes); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, "update invoice status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *InvoiceRepository) SaveResults(ctx context.Context, inv *domain.Invoice, results []domain.ValidationResult, summary domain.ValidationSummary) error {
	itemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	sectionsJSON, err := json.Marshal(inv.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	notesJSON, err := json.Marshal(inv.Notes)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal validation results: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET invoice_number = $2, invoice_date = $3, customer_id = $4, account_number = $5,
	line_items = $6, sections = $7, notes = $8, results = $9, summary = $10, updated_at = $11
WHERE id = $1
`,
		inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.CustomerID, inv.AccountNumber,
		itemsJSON, sectionsJSON, notesJSON, resultsJSON, summaryJSON, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save invoice results: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, "save invoice results", fmt.Errorf("id %s", inv.ID))
	}
	return nil
}

func (r *InvoiceRepository) GetResults(ctx context.Context, id string) ([]domain.ValidationResult, domain.ValidationSummary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT results, summary
FROM invoices
WHERE id = $1
`, id)

	var resultsRaw, summaryRaw []byte
	if err := row.Scan(&resultsRaw, &summaryRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ValidationSummary{}, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice results", fmt.Errorf("id %s", id))
		}
		return nil, domain.ValidationSummary{}, fmt.Errorf("scan invoice results: %w", err)
	}

	var results []domain.ValidationResult
	if err := json.Unmarshal(resultsRaw, &results); err != nil {
		return nil, domain.ValidationSummary{}, fmt.Errorf("unmarshal validation results: %w", err)
	}
	var summary domain.ValidationSummary
	if err := json.Unmarshal(summaryRaw, &summary); err != nil {
		return nil, domain.ValidationSummary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return results, summary, nil
}
