package tables

import "github.com/kirillkom/invoice-audit/internal/core/domain"

// StrategyResult tags one extraction strategy's scored candidates.
type StrategyResult struct {
	Strategy   domain.Strategy
	Candidates []domain.ScoredTable
}

// Reconcile chooses between two independently produced candidate sets.
// Neither extraction heuristic is uniformly superior, so selection is
// data-driven per document: each side is deduplicated and the side with
// the higher aggregate surviving score wins. Ties favor the first side.
// If one side produced nothing, the other is used as-is.
func Reconcile(first, second StrategyResult) []domain.ScoredTable {
	if len(first.Candidates) == 0 && len(second.Candidates) == 0 {
		return nil
	}
	if len(first.Candidates) == 0 {
		return Deduplicate(second.Candidates)
	}
	if len(second.Candidates) == 0 {
		return Deduplicate(first.Candidates)
	}

	firstKept := Deduplicate(first.Candidates)
	secondKept := Deduplicate(second.Candidates)

	if aggregateScore(secondKept) > aggregateScore(firstKept) {
		return secondKept
	}
	return firstKept
}

func aggregateScore(candidates []domain.ScoredTable) float64 {
	var sum float64
	for _, c := range candidates {
		sum += c.Score
	}
	return sum
}
