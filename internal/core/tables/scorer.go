// Package tables rates, deduplicates, and reconciles candidate tables
// proposed by the extraction backends. The scores and rejection flags it
// produces are the diagnostic trail for the rest of the pipeline.
package tables

import (
	"regexp"
	"strings"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

// headerVocabulary are the words expected in a genuine line-item header.
var headerVocabulary = []string{
	"WEARER", "ITEM", "DESCRIPTION", "SIZE", "TYPE", "QTY",
	"RATE", "TOTAL", "RENT", "BILL", "QUANTITY", "AMOUNT", "PRICE",
}

// noisePhrases are invoice boilerplate that never belongs in a line-item
// table body.
var noisePhrases = []string{
	"BILLING INQUIRIES", "QUESTIONS ABOUT YOUR INVOICE", "REMIT TO",
	"PLEASE DETACH", "WWW.", "HTTP", ".COM", "P.O. BOX", "PO BOX",
	"PAGE ", "TERMS AND CONDITIONS", "NET 30", "DUE UPON RECEIPT",
	"CUSTOMER SERVICE", "THANK YOU FOR YOUR BUSINESS",
}

// strongNegativePhrases force rejection on their own.
var strongNegativePhrases = []string{
	"FOR BILLING INQUIRIES CALL", "DIRECT ALL BILLING INQUIRIES",
	"REMITTANCE ADVICE", "RETURN THIS PORTION WITH YOUR PAYMENT",
}

// agingKeywords identify accounts-receivable aging summaries, which mimic
// tables but carry no line items.
var agingKeywords = []string{
	"CURRENT", "1-30 DAYS", "31-60 DAYS", "61-90 DAYS", "91-120 DAYS",
	"OVER 120 DAYS", "TOTAL DUE", "PAST DUE",
}

var (
	itemCodeRe = regexp.MustCompile(`\b[A-Z]{2,3}[0-9]{3,4}[A-Z]*\b`)
	decimalRe  = regexp.MustCompile(`\b\d+\.\d{2,3}\b`)
	// Firstname Lastname shaped tokens, as printed on garment invoices.
	employeeNameRe = regexp.MustCompile(`\b[A-Z][a-z]{2,}\s+[A-Z][a-z]{2,}\b`)
)

// ScorerConfig carries the empirically tuned scoring constants. The values
// have no principled derivation; they are preserved from production tuning
// and overridable per deployment.
type ScorerConfig struct {
	RowPoints    float64 // per row, up to RowPointsCap
	RowPointsCap float64
	ColPoints    float64 // per column, up to ColPointsCap
	ColPointsCap float64
	// NarrowColumnFactor scales the column term when the table has fewer
	// than three columns.
	NarrowColumnFactor float64

	HeaderWordBonus  float64
	ItemCodeBonus    float64
	ItemCodeBonusCap float64
	DecimalBonus     float64
	DecimalBonusCap  float64
	NameBonus        float64
	NameBonusCap     float64

	NoisePenalty        float64
	EmptyCellPenalty    float64 // applied once when over half the cells are empty
	StructureBonus      float64
	StructureBonusCols  [2]int
	StructureBonusRows  [2]int
	MinNonEmptyFraction float64

	// NameOverrideCount is the number of employee-name tokens above which
	// aging/boilerplate rejection is overridden.
	NameOverrideCount int
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		RowPoints:          2,
		RowPointsCap:       40,
		ColPoints:          3,
		ColPointsCap:       30,
		NarrowColumnFactor: 0.1,

		HeaderWordBonus:  5,
		ItemCodeBonus:    4,
		ItemCodeBonusCap: 20,
		DecimalBonus:     2,
		DecimalBonusCap:  20,
		NameBonus:        3,
		NameBonusCap:     15,

		NoisePenalty:        8,
		EmptyCellPenalty:    10,
		StructureBonus:      15,
		StructureBonusCols:  [2]int{5, 15},
		StructureBonusRows:  [2]int{3, 100},
		MinNonEmptyFraction: 0.3,

		NameOverrideCount: 2,
	}
}

type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score rates how likely a candidate is to be genuine line-item data.
// Hard-rejected candidates get the garbage sentinel score.
func (s *Scorer) Score(t domain.RawTable) domain.ScoredTable {
	rows := t.RowCount()
	cols := t.ColumnCount()
	text := flatten(t)
	upper := strings.ToUpper(text)

	nameCount := len(employeeNameRe.FindAllString(text, -1))

	if s.reject(t, rows, cols, upper, nameCount) {
		return domain.ScoredTable{Table: t, Score: domain.GarbageScore, Rejected: true}
	}

	score := s.structural(rows, cols)
	score += s.content(text, upper, nameCount)
	score -= s.noise(t, upper)

	if cols >= s.cfg.StructureBonusCols[0] && cols <= s.cfg.StructureBonusCols[1] &&
		rows >= s.cfg.StructureBonusRows[0] && rows <= s.cfg.StructureBonusRows[1] {
		score += s.cfg.StructureBonus
	}

	if score < 0 {
		score = 0
	}
	return domain.ScoredTable{Table: t, Score: score}
}

func (s *Scorer) structural(rows, cols int) float64 {
	rowTerm := float64(rows) * s.cfg.RowPoints
	if rowTerm > s.cfg.RowPointsCap {
		rowTerm = s.cfg.RowPointsCap
	}
	colTerm := float64(cols) * s.cfg.ColPoints
	if colTerm > s.cfg.ColPointsCap {
		colTerm = s.cfg.ColPointsCap
	}
	if cols < 3 {
		colTerm *= s.cfg.NarrowColumnFactor
	}
	return rowTerm + colTerm
}

func (s *Scorer) content(text, upper string, nameCount int) float64 {
	var score float64
	for _, word := range headerVocabulary {
		if strings.Contains(upper, word) {
			score += s.cfg.HeaderWordBonus
		}
	}
	score += capped(float64(len(itemCodeRe.FindAllString(upper, -1)))*s.cfg.ItemCodeBonus, s.cfg.ItemCodeBonusCap)
	score += capped(float64(len(decimalRe.FindAllString(text, -1)))*s.cfg.DecimalBonus, s.cfg.DecimalBonusCap)
	score += capped(float64(nameCount)*s.cfg.NameBonus, s.cfg.NameBonusCap)
	return score
}

func (s *Scorer) noise(t domain.RawTable, upper string) float64 {
	var penalty float64
	for _, phrase := range noisePhrases {
		penalty += float64(strings.Count(upper, phrase)) * s.cfg.NoisePenalty
	}
	if nonEmptyFraction(t) < 0.5 {
		penalty += s.cfg.EmptyCellPenalty
	}
	return penalty
}

func (s *Scorer) reject(t domain.RawTable, rows, cols int, upper string, nameCount int) bool {
	if rows < 3 || cols < 3 {
		return true
	}
	if nonEmptyFraction(t) < s.cfg.MinNonEmptyFraction {
		return true
	}

	// Aging summaries and payment-stub boilerplate mimic tables. More than
	// NameOverrideCount employee-name tokens is taken as evidence of genuine
	// wearer rows and overrides both checks.
	if nameCount <= s.cfg.NameOverrideCount {
		for _, phrase := range strongNegativePhrases {
			if strings.Contains(upper, phrase) {
				return true
			}
		}
		if countDistinct(upper, agingKeywords) >= 3 {
			return true
		}
	}

	if rows > 10 && countDistinct(upper, headerVocabulary) == 0 {
		return true
	}
	return false
}

func flatten(t domain.RawTable) string {
	var b strings.Builder
	for _, row := range t.Rows {
		for _, cell := range row {
			if cell == "" {
				continue
			}
			b.WriteString(cell)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func nonEmptyFraction(t domain.RawTable) float64 {
	total, filled := 0, 0
	for _, row := range t.Rows {
		for _, cell := range row {
			total++
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total)
}

func countDistinct(upper string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(upper, w) {
			n++
		}
	}
	return n
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
