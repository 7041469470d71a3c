// Package analysis turns a paper's reviewer scores into an acceptance
// probability using an ordered rule cascade.
package analysis

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// ErrNoScores is returned when there is nothing to score
var ErrNoScores = errors.New("at least one review score is required")

// interpolation anchors for the fallback rule
const (
	interpLowAvg   = 4.0
	interpHighAvg  = 6.0
	interpLowProb  = 0.25
	interpHighProb = 0.75
)

// cascade is evaluated top to bottom; the first matching rule wins
var cascade = []struct {
	rule  Rule
	band  Band
	match func(s summary) bool
}{
	{RuleHighAverage, Band{0.85, 0.95}, func(s summary) bool { return s.avg > 6 }},
	{RuleLowAverage, Band{0.01, 0.20}, func(s summary) bool { return s.avg <= 4 }},
	{RuleAllPositive, Band{0.85, 0.95}, func(s summary) bool { return s.negative == 0 }},
	{RuleAllNegative, Band{0.10, 0.25}, func(s summary) bool { return s.positive == 0 }},
	{RuleNegativeMajority, Band{0.10, 0.35}, func(s summary) bool { return s.negative > s.positive }},
	{RuleManyNegative, Band{0.01, 0.22}, func(s summary) bool { return s.negative >= 3 }},
	{RuleSingleNegative, Band{0.80, 0.90}, func(s summary) bool { return s.negative == 1 && s.avg > 5 }},
	{RuleTwoNegative, Band{0.60, 0.75}, func(s summary) bool { return s.negative == 2 }},
	// shadowed by RuleAllPositive for every input; kept so the order stays intact
	{RuleFiveSixOnly, Band{0.75, 0.85}, func(s summary) bool { return s.fiveSix }},
}

// Evaluate runs the cascade and reports which rule matched, without drawing.
// Confidences play no part in the current rules.
func Evaluate(scores []float64) (Verdict, error) {
	if len(scores) == 0 {
		return Verdict{}, ErrNoScores
	}

	s := summarize(scores)
	v := Verdict{
		Average:  s.avg,
		Minimum:  s.min,
		Positive: s.positive,
		Negative: s.negative,
	}

	for _, c := range cascade {
		if c.match(s) {
			v.Rule = c.rule
			v.Band = c.band
			return v, nil
		}
	}

	p := interpLowProb
	if s.avg >= 5 {
		p = (s.avg-interpLowAvg)/(interpHighAvg-interpLowAvg)*(interpHighProb-interpLowProb) + interpLowProb
	}
	p = clip(p, 0, 1)
	v.Rule = RuleInterpolated
	v.Band = Band{p, p}
	return v, nil
}

// Scorer draws probabilities for verdicts. It is safe for concurrent use.
type Scorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer creates a scorer over src. A nil src gets a randomly seeded PCG.
func NewScorer(src rand.Source) *Scorer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Scorer{rng: rand.New(src)}
}

// Assess evaluates scores and draws a probability from the matched band
func (s *Scorer) Assess(scores, confidences []float64) (Assessment, error) {
	v, err := Evaluate(scores)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{Verdict: v, Probability: s.draw(v.Band)}, nil
}

// Score returns the acceptance probability for scores, in [0,1]
func (s *Scorer) Score(scores, confidences []float64) (float64, error) {
	a, err := s.Assess(scores, confidences)
	if err != nil {
		return 0, err
	}
	return a.Probability, nil
}

func (s *Scorer) draw(b Band) float64 {
	if b.Fixed() {
		return b.Low
	}
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()
	return clip(clip(b.Low+u*(b.High-b.Low), b.Low, b.High), 0, 1)
}

var defaultScorer = NewScorer(nil)

// Score scores with the process-wide scorer
func Score(scores, confidences []float64) (float64, error) {
	return defaultScorer.Score(scores, confidences)
}
