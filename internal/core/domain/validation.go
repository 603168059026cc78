package domain

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type AnomalyKind string

const (
	AnomalyNone             AnomalyKind = ""
	AnomalyPriceDiscrepancy AnomalyKind = "price_discrepancy"
	AnomalyMissingPrice     AnomalyKind = "missing_price"
	AnomalyUnknownPart      AnomalyKind = "unknown_part"
	AnomalyTotalsMismatch   AnomalyKind = "totals_mismatch"
)

// DiscoveryMode selects how unknown parts are handled during a validation
// run. Modes are mutually exclusive per run.
type DiscoveryMode string

const (
	// DiscoveryInteractive creates a catalog entry immediately from
	// discovered data, falling back to an error line on failure.
	DiscoveryInteractive DiscoveryMode = "interactive"
	// DiscoveryBatch always records unknown parts for later bulk review.
	DiscoveryBatch DiscoveryMode = "batch"
)

// ValidationResult is one classified check outcome. Immutable once produced;
// validation failures are data, not control flow.
type ValidationResult struct {
	Valid      bool           `json:"valid"`
	Severity   Severity       `json:"severity"`
	Anomaly    AnomalyKind    `json:"anomaly,omitempty"`
	Message    string         `json:"message"`
	Field      string         `json:"field,omitempty"`
	LineNumber string         `json:"line_number,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// ValidationSummary aggregates per-invoice outcomes. Unknown parts are
// excluded from the pass/fail counts.
type ValidationSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Unknown int `json:"unknown"`
}

// PipelineStats summarizes one processing run for operational reporting.
// Outcomes counts every validation result by anomaly kind; AnomalyNone
// covers passes.
type PipelineStats struct {
	LineItems      int
	RejectedTables map[Strategy]int
	Outcomes       map[AnomalyKind]int
	Summary        ValidationSummary
}
