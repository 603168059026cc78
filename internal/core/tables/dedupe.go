package tables

import (
	"sort"
	"strings"

	"github.com/kirillkom/invoice-audit/internal/core/domain"
)

const (
	// Two candidates covering the same physical region rarely differ by
	// more than a few rows or 30% of their token content.
	duplicateMaxRowDiff    = 10
	duplicateMinSimilarity = 0.7
)

// Deduplicate keeps one representative per distinct table: rejected
// candidates are discarded, the rest are taken best-score-first, and a
// candidate is dropped when it is similar to one already accepted. The
// order sensitivity is deliberate so the best-scoring version of a
// duplicated table always wins. Idempotent.
func Deduplicate(candidates []domain.ScoredTable) []domain.ScoredTable {
	kept := make([]domain.ScoredTable, 0, len(candidates))
	for _, c := range candidates {
		if !c.Rejected {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	accepted := make([]domain.ScoredTable, 0, len(kept))
	tokens := make([]map[string]struct{}, 0, len(kept))
	for _, c := range kept {
		set := tokenSet(c.Table)
		dup := false
		for i, a := range accepted {
			if similar(c.Table, a.Table, set, tokens[i]) {
				dup = true
				break
			}
		}
		if !dup {
			accepted = append(accepted, c)
			tokens = append(tokens, set)
		}
	}
	return accepted
}

func similar(a, b domain.RawTable, aTokens, bTokens map[string]struct{}) bool {
	rowDiff := a.RowCount() - b.RowCount()
	if rowDiff < 0 {
		rowDiff = -rowDiff
	}
	if rowDiff > duplicateMaxRowDiff {
		return false
	}
	return jaccard(aTokens, bTokens) >= duplicateMinSimilarity
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(t domain.RawTable) map[string]struct{} {
	set := make(map[string]struct{})
	for _, row := range t.Rows {
		for _, cell := range row {
			for _, token := range strings.Fields(strings.ToUpper(cell)) {
				set[token] = struct{}{}
			}
		}
	}
	return set
}
