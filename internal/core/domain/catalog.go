package domain

import "time"

// CatalogEntry is an authoritative part record. Identity is composite
// (item type + description + code) with a code-only fallback.
type CatalogEntry struct {
	ID          string    `json:"id"`
	ItemCode    string    `json:"item_code"`
	Description string    `json:"description"`
	ItemType    string    `json:"item_type,omitempty"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnknownPart captures a line item with no catalog match, with enough
// provenance for a later discovery pass. Ephemeral until persisted.
type UnknownPart struct {
	ItemCode        string  `json:"item_code"`
	Description     string  `json:"description"`
	ItemType        string  `json:"item_type,omitempty"`
	DiscoveredPrice float64 `json:"discovered_price"`
	Quantity        float64 `json:"quantity"`
	InvoiceID       string  `json:"invoice_id"`
	InvoiceNumber   string  `json:"invoice_number,omitempty"`
	LineNumber      string  `json:"line_number"`
}
