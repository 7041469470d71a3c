// Package ranking places a target average score within a historical corpus.
package ranking

import "github.com/ZanzyTHEbar/paper-odds/internal/corpus"

// Position is where a target average lands in a corpus
type Position struct {
	RankInAll      int `json:"rank_in_all"`
	RankInAccepted int `json:"rank_in_accepted"`
	TotalPapers    int `json:"total_papers"`
	AcceptedPapers int `json:"accepted_papers"`
}

// Rank returns 1 plus the number of papers scoring strictly above target.
// papers must be sorted by AverageScore descending; the scan stops at the
// first paper at or below target, so ties share the better rank.
func Rank(target float64, papers []corpus.ScoredPaper) int {
	rank := 1
	for _, p := range papers {
		if p.AverageScore <= target {
			break
		}
		rank++
	}
	return rank
}

// Locate ranks target against both views of c. c must not be empty.
func Locate(target float64, c *corpus.YearCorpus) Position {
	return Position{
		RankInAll:      Rank(target, c.AllPapers),
		RankInAccepted: Rank(target, c.AcceptedPapers),
		TotalPapers:    len(c.AllPapers),
		AcceptedPapers: len(c.AcceptedPapers),
	}
}

// Percentile returns the share of papers ranked at or below the position, in [0,1]
func (p Position) Percentile() float64 {
	if p.TotalPapers == 0 {
		return 0
	}
	better := p.RankInAll - 1
	if better > p.TotalPapers {
		better = p.TotalPapers
	}
	return 1 - float64(better)/float64(p.TotalPapers)
}
