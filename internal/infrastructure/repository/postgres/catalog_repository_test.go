package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

func newCatalogMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCatalogRepository(db), mock
}

func entryColumns() []string {
	return []string{"id", "item_code", "description", "item_type", "price", "active", "created_at", "updated_at"}
}

func TestCatalogLookup(t *testing.T) {
	repo, mock := newCatalogMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM catalog_entries").
		WithArgs("Rent", "JACKET HIP", "GOS218NVOT").
		WillReturnRows(sqlmock.NewRows(entryColumns()).
			AddRow("id-1", "GOS218NVOT", "JACKET HIP", "Rent", 0.750, true, now, now))

	entry, err := repo.Lookup(context.Background(), "Rent", "JACKET HIP", "GOS218NVOT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ItemCode != "GOS218NVOT" || entry.Price != 0.750 || !entry.Active {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogLookupNotFound(t *testing.T) {
	repo, mock := newCatalogMock(t)

	mock.ExpectQuery("FROM catalog_entries").
		WithArgs("", "X", "NOPE").
		WillReturnRows(sqlmock.NewRows(entryColumns()))

	_, err := repo.Lookup(context.Background(), "", "X", "NOPE")
	if !domain.IsKind(err, domain.ErrPartNotFound) {
		t.Fatalf("expected ErrPartNotFound, got %v", err)
	}
}

func TestCatalogLookupByCode(t *testing.T) {
	repo, mock := newCatalogMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE item_code = \\$1 AND active").
		WithArgs("GOS218NVOT").
		WillReturnRows(sqlmock.NewRows(entryColumns()).
			AddRow("id-1", "GOS218NVOT", "JACKET HIP", "", 0.750, true, now, now))

	entry, err := repo.LookupByCode(context.Background(), "GOS218NVOT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Description != "JACKET HIP" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestCatalogCreate(t *testing.T) {
	repo, mock := newCatalogMock(t)

	mock.ExpectExec("INSERT INTO catalog_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Create(context.Background(), &domain.CatalogEntry{
		ItemCode:    "NEW100AB",
		Description: "NEW PART",
		Price:       0.600,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps set")
	}
}

func TestCatalogCreateDuplicate(t *testing.T) {
	repo, mock := newCatalogMock(t)

	mock.ExpectExec("INSERT INTO catalog_entries").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, err := repo.Create(context.Background(), &domain.CatalogEntry{ItemCode: "DUP100", Description: "DUP", Price: 1})
	if !domain.IsKind(err, domain.ErrPartExists) {
		t.Fatalf("expected ErrPartExists, got %v", err)
	}
}

func TestCatalogSaveUnknown(t *testing.T) {
	repo, mock := newCatalogMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO unknown_parts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO unknown_parts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	parts := []domain.UnknownPart{
		{ItemCode: "ZZZ111", Description: "MYSTERY", InvoiceID: "inv-1", LineNumber: "3"},
		{ItemCode: "ZZZ222", Description: "ENIGMA", InvoiceID: "inv-1", LineNumber: "4"},
	}
	if err := repo.SaveUnknown(context.Background(), parts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCatalogSaveUnknownEmpty(t *testing.T) {
	repo, mock := newCatalogMock(t)

	if err := repo.SaveUnknown(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("empty batch must not touch the database")
	}
}

func TestCatalogListUnknown(t *testing.T) {
	repo, mock := newCatalogMock(t)

	columns := []string{"item_code", "description", "item_type", "discovered_price", "quantity", "invoice_id", "invoice_number", "line_number"}
	mock.ExpectQuery("FROM unknown_parts").
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("ZZZ111", "MYSTERY", "", 1.25, 2.0, "inv-1", "12345", "3"))

	parts, err := repo.ListUnknown(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 1 || parts[0].ItemCode != "ZZZ111" || parts[0].DiscoveredPrice != 1.25 {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}
