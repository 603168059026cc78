package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for invoice upload orchestration.
type InvoiceIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Invoice, error)
}

// InvoiceProcessor is the inbound contract for asynchronous pipeline runs.
type InvoiceProcessor interface {
	ProcessByID(ctx context.Context, invoiceID string) (domain.PipelineStats, error)
}

// InvoiceReader is the inbound read model for invoice state and results.
type InvoiceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetResults(ctx context.Context, id string) ([]domain.ValidationResult, domain.ValidationSummary, error)
}
