// Package predictor combines the rule cascade with historical ranking.
package predictor

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/paper-odds/internal/analysis"
	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
	"github.com/ZanzyTHEbar/paper-odds/internal/ranking"
)

// Fallback counts used when no reference corpus is loaded
const (
	DefaultTotalPapers    = 12000
	DefaultAcceptedPapers = 3000
)

const (
	MethodHistorical = "rule_threshold_with_historical_ranking"
	MethodDefault    = "rule_threshold_with_default_ranking"
)

// CorpusSource looks up the corpus for a year. *corpus.Store satisfies it.
type CorpusSource interface {
	Get(year string) (*corpus.YearCorpus, bool)
}

// Result is a full prediction for one paper
type Result struct {
	Probability    float64       `json:"probability" yaml:"probability"`
	RankInAll      int           `json:"rank_in_all" yaml:"rank_in_all"`
	RankInAccepted int           `json:"rank_in_accepted" yaml:"rank_in_accepted"`
	TotalPapers    int           `json:"total_papers" yaml:"total_papers"`
	AcceptedPapers int           `json:"accepted_papers" yaml:"accepted_papers"`
	AvgScore       float64       `json:"avg_score" yaml:"avg_score"`
	MinScore       float64       `json:"min_score" yaml:"min_score"`
	Method         string        `json:"prediction_method" yaml:"prediction_method"`
	Rule           analysis.Rule `json:"rule" yaml:"rule"`
	ReferenceYear  string        `json:"reference_year,omitempty" yaml:"reference_year,omitempty"`
	DurationMS     float64       `json:"prediction_time_ms" yaml:"prediction_time_ms"`
}

// Stats are running totals across all predictions served
type Stats struct {
	TotalPredictions  int64   `json:"total_predictions" yaml:"total_predictions"`
	FallbackCount     int64   `json:"fallback_predictions" yaml:"fallback_predictions"`
	AvgPredictionTime float64 `json:"avg_prediction_time_ms" yaml:"avg_prediction_time_ms"`
}

// Service is safe for concurrent use
type Service struct {
	corpora CorpusSource
	scorer  *analysis.Scorer

	mu    sync.Mutex
	stats Stats
}

// NewService creates a predictor. A nil scorer gets a randomly seeded one.
func NewService(corpora CorpusSource, scorer *analysis.Scorer) *Service {
	if scorer == nil {
		scorer = analysis.NewScorer(nil)
	}
	return &Service{corpora: corpora, scorer: scorer}
}

// ReferenceYear returns the year whose corpus ranks predictions for year
func ReferenceYear(year string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(y - 1), true
}

// Rank places targetAvg in the corpus of the year before year. When that
// corpus is missing or empty, ranks are estimated from the default counts
// scaled by (1 - probability). It never fails; the bool reports whether
// historical data was used.
func (s *Service) Rank(targetAvg float64, year string, probability float64) (ranking.Position, bool) {
	if ref, ok := ReferenceYear(year); ok && s.corpora != nil {
		if c, found := s.corpora.Get(ref); found && !c.Empty() {
			return ranking.Locate(targetAvg, c), true
		}
	}
	return DefaultPosition(probability), false
}

// DefaultPosition estimates a position without historical data
func DefaultPosition(probability float64) ranking.Position {
	return ranking.Position{
		RankInAll:      max(1, int(DefaultTotalPapers*(1-probability))),
		RankInAccepted: max(1, int(DefaultAcceptedPapers*(1-probability))),
		TotalPapers:    DefaultTotalPapers,
		AcceptedPapers: DefaultAcceptedPapers,
	}
}

// Predict scores a paper and ranks it against the prior year's corpus
func (s *Service) Predict(scores, confidences []float64, year string) (Result, error) {
	start := time.Now()

	a, err := s.scorer.Assess(scores, confidences)
	if err != nil {
		return Result{}, err
	}

	pos, historical := s.Rank(a.Average, year, a.Probability)
	ref, _ := ReferenceYear(year)

	res := Result{
		Probability:    a.Probability,
		RankInAll:      pos.RankInAll,
		RankInAccepted: pos.RankInAccepted,
		TotalPapers:    pos.TotalPapers,
		AcceptedPapers: pos.AcceptedPapers,
		AvgScore:       a.Average,
		MinScore:       a.Minimum,
		Method:         MethodHistorical,
		Rule:           a.Rule,
		ReferenceYear:  ref,
	}
	if !historical {
		res.Method = MethodDefault
		slog.Info("No historical data for reference year, using default ranking",
			"year", year, "reference_year", ref)
	}

	elapsed := time.Since(start)
	res.DurationMS = float64(elapsed.Microseconds()) / 1000
	s.record(res.DurationMS, historical)
	return res, nil
}

func (s *Service) record(durationMS float64, historical bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := float64(s.stats.TotalPredictions)
	s.stats.AvgPredictionTime = (s.stats.AvgPredictionTime*n + durationMS) / (n + 1)
	s.stats.TotalPredictions++
	if !historical {
		s.stats.FallbackCount++
	}
}

// Stats returns a snapshot of the running totals
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
