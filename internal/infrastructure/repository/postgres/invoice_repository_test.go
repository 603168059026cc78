package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func newInvoiceMock(t *testing.T) (*InvoiceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewInvoiceRepository(db), mock
}

func TestInvoiceCreate(t *testing.T) {
	repo, mock := newInvoiceMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs("inv-1", "march.pdf", "inv-1_march.pdf", "uploaded", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Invoice{
		ID:          "inv-1",
		Filename:    "march.pdf",
		StoragePath: "inv-1_march.pdf",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInvoiceGetByID(t *testing.T) {
	repo, mock := newInvoiceMock(t)
	now := time.Now().UTC()

	columns := []string{
		"id", "filename", "storage_path", "invoice_number", "invoice_date",
		"customer_id", "account_number", "line_items", "sections", "notes",
		"status", "error_message", "created_at", "updated_at",
	}
	items := `[{"line_number":"1","description":"JACKET HIP","quantity":2,"rate":0.75}]`
	sections := `[{"kind":"subtotal","amount":1.5},{"kind":"total","amount":1.5}]`

	mock.ExpectQuery("FROM invoices").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("inv-1", "march.pdf", "inv-1_march.pdf", "12345", "01/15/2026",
				"CUST9", "ACCT1", []byte(items), []byte(sections), []byte(`[]`),
				"validated", "", now, now))

	inv, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != domain.StatusValidated || inv.InvoiceNumber != "12345" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if len(inv.LineItems) != 1 || inv.LineItems[0].Rate == nil || *inv.LineItems[0].Rate != 0.75 {
		t.Fatalf("line items not decoded: %+v", inv.LineItems)
	}
	if len(inv.Sections) != 2 || inv.Sections[0].Kind != domain.SectionSubtotal {
		t.Fatalf("sections not decoded: %+v", inv.Sections)
	}
}

func TestInvoiceGetByIDNotFound(t *testing.T) {
	repo, mock := newInvoiceMock(t)

	mock.ExpectQuery("FROM invoices").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestInvoiceUpdateStatus(t *testing.T) {
	repo, mock := newInvoiceMock(t)

	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "inv-1", domain.StatusProcessing, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvoiceUpdateStatusNotFound(t *testing.T) {
	repo, mock := newInvoiceMock(t)

	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestInvoiceSaveResults(t *testing.T) {
	repo, mock := newInvoiceMock(t)

	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rate := 0.75
	inv := &domain.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "12345",
		LineItems:     []domain.LineItem{{LineNumber: "1", Description: "JACKET HIP", Quantity: 2, Rate: &rate}},
	}
	results := []domain.ValidationResult{{Valid: true, Severity: domain.SeverityInfo, Message: "ok"}}
	summary := domain.ValidationSummary{Total: 1, Passed: 1}

	if err := repo.SaveResults(context.Background(), inv, results, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInvoiceGetResults(t *testing.T) {
	repo, mock := newInvoiceMock(t)

	mock.ExpectQuery("SELECT results, summary").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows([]string{"results", "summary"}).
			AddRow(
				[]byte(`[{"valid":false,"severity":"critical","anomaly":"price_discrepancy","message":"overbilled"}]`),
				[]byte(`{"total":1,"passed":0,"failed":1,"unknown":0}`),
			))

	results, summary, err := repo.GetResults(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Anomaly != domain.AnomalyPriceDiscrepancy {
		t.Fatalf("unexpected results: %+v", results)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
