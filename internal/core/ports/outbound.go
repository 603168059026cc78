package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// InvoiceRepository persists invoice state and pipeline output.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error
	SaveResults(ctx context.Context, inv *domain.Invoice, results []domain.ValidationResult, summary domain.ValidationSummary) error
	GetResults(ctx context.Context, id string) ([]domain.ValidationResult, domain.ValidationSummary, error)
}

// CatalogStore is the authoritative part catalog.
type CatalogStore interface {
	// Lookup resolves by composite identity (item type + description + code).
	Lookup(ctx context.Context, itemType, description, code string) (*domain.CatalogEntry, error)
	// LookupByCode resolves by code alone.
	LookupByCode(ctx context.Context, code string) (*domain.CatalogEntry, error)
	// Create returns domain.ErrPartExists on a duplicate identity.
	Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error)
	SaveUnknown(ctx context.Context, parts []domain.UnknownPart) error
	ListUnknown(ctx context.Context, limit int) ([]domain.UnknownPart, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes invoice processing jobs.
type MessageQueue interface {
	PublishInvoiceReceived(ctx context.Context, invoiceID string) error
	SubscribeInvoiceReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor produces the plain extracted-text blob and the metadata
// parsed from it (invoice number, date, customer ids, summary sections).
type TextExtractor interface {
	ExtractText(ctx context.Context, inv *domain.Invoice) (string, domain.InvoiceMetadata, error)
}

// TableExtractor proposes raw candidate tables from a stored document,
// independently per strategy.
type TableExtractor interface {
	ExtractTables(ctx context.Context, inv *domain.Invoice, strategy domain.Strategy) ([]domain.RawTable, error)
}

// ReportWriter renders a per-invoice validation report.
type ReportWriter interface {
	Write(w io.Writer, inv *domain.Invoice, results []domain.ValidationResult, summary domain.ValidationSummary) error
}
