package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

const uniqueViolationCode = "23505"

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026070201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id TEXT PRIMARY KEY,
	item_code TEXT NOT NULL,
	description TEXT NOT NULL,
	item_type TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (item_type, description, item_code)
);

CREATE INDEX IF NOT EXISTS idx_catalog_entries_item_code ON catalog_entries(item_code);

CREATE TABLE IF NOT EXISTS unknown_parts (
	id TEXT PRIMARY KEY,
	item_code TEXT NOT NULL,
	description TEXT NOT NULL,
	item_type TEXT NOT NULL DEFAULT '',
	discovered_price DOUBLE PRECISION NOT NULL,
	quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
	invoice_id TEXT NOT NULL,
	invoice_number TEXT,
	line_number TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_unknown_parts_item_code ON unknown_parts(item_code);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) Lookup(ctx context.Context, itemType, description, code string) (*domain.CatalogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, item_code, description, item_type, price, active, created_at, updated_at
FROM catalog_entries
WHERE item_type = $1 AND description = $2 AND item_code = $3 AND active
`, itemType, description, code)
	return scanEntry(row, code)
}

func (r *CatalogRepository) LookupByCode(ctx context.Context, code string) (*domain.CatalogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, item_code, description, item_type, price, active, created_at, updated_at
FROM catalog_entries
WHERE item_code = $1 AND active
ORDER BY updated_at DESC
LIMIT 1
`, code)
	return scanEntry(row, code)
}

func scanEntry(row *sql.Row, code string) (*domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := row.Scan(
		&entry.ID, &entry.ItemCode, &entry.Description, &entry.ItemType,
		&entry.Price, &entry.Active, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPartNotFound, "lookup catalog entry",
				fmt.Errorf("code %s", code))
		}
		return nil, fmt.Errorf("scan catalog entry: %w", err)
	}
	return &entry, nil
}

func (r *CatalogRepository) Create(ctx context.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	created := *entry
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO catalog_entries (id, item_code, description, item_type, price, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		created.ID, created.ItemCode, created.Description, created.ItemType,
		created.Price, created.Active, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.WrapError(domain.ErrPartExists, "create catalog entry",
				fmt.Errorf("code %s", created.ItemCode))
		}
		return nil, fmt.Errorf("insert catalog entry: %w", err)
	}
	return &created, nil
}

func (r *CatalogRepository) SaveUnknown(ctx context.Context, parts []domain.UnknownPart) error {
	if len(parts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unknown parts tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, p := range parts {
		_, err := tx.ExecContext(ctx, `
INSERT INTO unknown_parts (id, item_code, description, item_type, discovered_price, quantity, invoice_id, invoice_number, line_number, recorded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
			uuid.NewString(), p.ItemCode, p.Description, p.ItemType,
			p.DiscoveredPrice, p.Quantity, p.InvoiceID, p.InvoiceNumber, p.LineNumber, now,
		)
		if err != nil {
			return fmt.Errorf("insert unknown part %s: %w", p.ItemCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unknown parts tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListUnknown(ctx context.Context, limit int) ([]domain.UnknownPart, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT item_code, description, item_type, discovered_price, quantity, invoice_id, COALESCE(invoice_number, ''), COALESCE(line_number, '')
FROM unknown_parts
ORDER BY recorded_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unknown parts: %w", err)
	}
	defer rows.Close()

	var parts []domain.UnknownPart
	for rows.Next() {
		var p domain.UnknownPart
		if err := rows.Scan(
			&p.ItemCode, &p.Description, &p.ItemType, &p.DiscoveredPrice,
			&p.Quantity, &p.InvoiceID, &p.InvoiceNumber, &p.LineNumber,
		); err != nil {
			return nil, fmt.Errorf("scan unknown part: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unknown parts: %w", err)
	}
	return parts, nil
}
