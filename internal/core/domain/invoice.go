package domain

import "time"

type InvoiceStatus string

const (
	StatusUploaded   InvoiceStatus = "uploaded"
	StatusProcessing InvoiceStatus = "processing"
	StatusValidated  InvoiceStatus = "validated"
	StatusFailed     InvoiceStatus = "failed"
)

// Strategy names one of the two independent table-detection algorithms
// applied to the same document.
type Strategy string

const (
	StrategyLattice Strategy = "lattice"
	StrategyStream  Strategy = "stream"
)

// RawTable is one table-shaped region proposed by an extraction backend.
// Cells may contain embedded line breaks representing stacked sub-records.
// Immutable once received.
type RawTable struct {
	Strategy Strategy   `json:"strategy"`
	Page     int        `json:"page"`
	Rows     [][]string `json:"rows"`
}

func (t RawTable) RowCount() int { return len(t.Rows) }

// ColumnCount is the widest row; extraction backends do not guarantee
// rectangular output.
func (t RawTable) ColumnCount() int {
	max := 0
	for _, row := range t.Rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// GarbageScore marks a candidate hard-rejected as non-line-item content.
const GarbageScore = -1000.0

// ScoredTable is a RawTable with its quality score and rejection flag.
type ScoredTable struct {
	Table    RawTable `json:"table"`
	Score    float64  `json:"score"`
	Rejected bool     `json:"rejected"`
}

// Field is a semantic line-item column.
type Field string

const (
	FieldItemCode    Field = "item_code"
	FieldDescription Field = "description"
	FieldRate        Field = "rate"
	FieldTotal       Field = "total"
	FieldType        Field = "type"
	FieldQuantity    Field = "quantity"
	FieldSize        Field = "size"
	FieldWearer      Field = "wearer"
)

// ColumnMapping maps semantic fields to zero-based column indices. Fields
// absent from a table are simply missing from the map. Every mapped index
// is within the table's column count.
type ColumnMapping map[Field]int

// MaxIndex returns the highest mapped column index, or -1 for an empty map.
func (m ColumnMapping) MaxIndex() int {
	max := -1
	for _, idx := range m {
		if idx > max {
			max = idx
		}
	}
	return max
}

// LineItem is the canonical extracted record. Never mutated after creation.
type LineItem struct {
	LineNumber  string   `json:"line_number"`
	Wearer      string   `json:"wearer,omitempty"`
	ItemCode    string   `json:"item_code,omitempty"`
	Description string   `json:"description"`
	Size        string   `json:"size,omitempty"`
	ItemType    string   `json:"item_type,omitempty"`
	Quantity    float64  `json:"quantity"`
	Rate        *float64 `json:"rate,omitempty"`
	Total       *float64 `json:"total,omitempty"`
	RawText     string   `json:"raw_text,omitempty"`
}

// Valid reports whether the item carries enough identity and pricing data
// to be checked against the catalog.
func (li LineItem) Valid() bool {
	return li.ItemCode != "" && li.Rate != nil && li.Quantity > 0
}

type SectionKind string

const (
	SectionSubtotal SectionKind = "subtotal"
	SectionFreight  SectionKind = "freight"
	SectionTax      SectionKind = "tax"
	SectionTotal    SectionKind = "total"
)

// FormatSection is one of the four invoice summary totals.
type FormatSection struct {
	Kind   SectionKind `json:"kind"`
	Amount float64     `json:"amount"`
}

type Invoice struct {
	ID            string          `json:"id"`
	Filename      string          `json:"filename"`
	StoragePath   string          `json:"storage_path"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	CustomerID    string          `json:"customer_id,omitempty"`
	AccountNumber string          `json:"account_number,omitempty"`
	LineItems     []LineItem      `json:"line_items,omitempty"`
	Sections      []FormatSection `json:"sections,omitempty"`
	RawText       string          `json:"-"`
	Notes         []string        `json:"notes,omitempty"`
	Status        InvoiceStatus   `json:"status"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceMetadata is the non-tabular data parsed from the extracted-text
// blob: document identity and the four summary sections.
type InvoiceMetadata struct {
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	CustomerID    string          `json:"customer_id,omitempty"`
	AccountNumber string          `json:"account_number,omitempty"`
	Sections      []FormatSection `json:"sections,omitempty"`
}

// StructurallyValid reports whether the invoice carries everything a
// downstream consumer needs: identity, date, line items, and all four
// summary sections.
func (inv Invoice) StructurallyValid() bool {
	return inv.InvoiceNumber != "" &&
		inv.InvoiceDate != "" &&
		len(inv.LineItems) > 0 &&
		len(inv.Sections) == 4
}

// Section returns the named summary section, if present.
func (inv Invoice) Section(kind SectionKind) (FormatSection, bool) {
	for _, s := range inv.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return FormatSection{}, false
}
