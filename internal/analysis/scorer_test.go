package analysis

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constSource always yields the same value, pinning every draw
type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

func TestEvaluateCascade(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		rule     Rule
		band     Band
		positive int
		negative int
	}{
		{"high average", []float64{6.5, 7}, RuleHighAverage, Band{0.85, 0.95}, 2, 0},
		{"low average", []float64{3, 2}, RuleLowAverage, Band{0.01, 0.20}, 0, 2},
		{"all positive beats five-six", []float64{5, 6, 6, 5}, RuleAllPositive, Band{0.85, 0.95}, 4, 0},
		{"all negative", []float64{4.5, 4.5}, RuleAllNegative, Band{0.10, 0.25}, 0, 2},
		{"negative majority", []float64{3, 4, 6}, RuleNegativeMajority, Band{0.10, 0.35}, 1, 2},
		{"many negative", []float64{3, 3, 3, 7, 7, 7}, RuleManyNegative, Band{0.01, 0.22}, 3, 3},
		{"single negative", []float64{4, 7, 6}, RuleSingleNegative, Band{0.80, 0.90}, 2, 1},
		{"two negative", []float64{4, 4, 7, 6}, RuleTwoNegative, Band{0.60, 0.75}, 2, 2},
		{"interpolated below five", []float64{6, 3}, RuleInterpolated, Band{0.25, 0.25}, 1, 1},
		{"interpolated at five", []float64{6, 4}, RuleInterpolated, Band{0.5, 0.5}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.rule, v.Rule)
			assert.InDelta(t, tt.band.Low, v.Band.Low, 1e-12)
			assert.InDelta(t, tt.band.High, v.Band.High, 1e-12)
			assert.Equal(t, tt.positive, v.Positive)
			assert.Equal(t, tt.negative, v.Negative)
		})
	}
}

func TestEvaluateNoScores(t *testing.T) {
	_, err := Evaluate(nil)
	assert.ErrorIs(t, err, ErrNoScores)

	_, err = Score([]float64{}, nil)
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestEvaluateSummary(t *testing.T) {
	v, err := Evaluate([]float64{8, 3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 16.0/3.0, v.Average, 1e-12)
	assert.Equal(t, 3.0, v.Minimum)
}

func TestScoreFixedRulesAreExact(t *testing.T) {
	s := NewScorer(nil)

	p, err := s.Score([]float64{6, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p)

	p, err = s.Score([]float64{6, 4}, []float64{3, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)
}

func TestScorePinnedDraws(t *testing.T) {
	low := NewScorer(constSource(0))
	p, err := low.Score([]float64{6.5, 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.85, p)

	high := NewScorer(constSource(math.MaxUint64))
	p, err = high.Score([]float64{6.5, 7}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, p, 1e-9)
	assert.LessOrEqual(t, p, 0.95)
}

func TestScoreStaysInsideBand(t *testing.T) {
	s := NewScorer(nil)
	inputs := [][]float64{
		{6.5, 7}, {3, 2}, {5, 6, 6, 5}, {4.5, 4.5}, {3, 4, 6},
		{3, 3, 3, 7, 7, 7}, {4, 7, 6}, {4, 4, 7, 6}, {6, 3}, {6, 4},
	}

	for _, scores := range inputs {
		v, err := Evaluate(scores)
		require.NoError(t, err)
		for i := 0; i < 200; i++ {
			a, err := s.Assess(scores, nil)
			require.NoError(t, err)
			assert.True(t, v.Band.Contains(a.Probability), "%v drew %v outside %v", scores, a.Probability, v.Band)
			assert.GreaterOrEqual(t, a.Probability, 0.0)
			assert.LessOrEqual(t, a.Probability, 1.0)
		}
	}
}

func TestScoreUnvalidatedRange(t *testing.T) {
	p, err := Score([]float64{-3, 42}, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestScorerConcurrentUse(t *testing.T) {
	s := NewScorer(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := s.Score([]float64{7, 8}, nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestRuleNames(t *testing.T) {
	assert.Equal(t, "all_positive", RuleAllPositive.String())
	assert.Equal(t, "interpolated", RuleInterpolated.String())
	assert.Equal(t, "rule(99)", Rule(99).String())

	text, err := RuleFiveSixOnly.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "five_six_only", string(text))
}

func TestFiveSixOnlyIsShadowed(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			scores := make([]float64, n)
			for i := range scores {
				scores[i] = 5
				if mask&(1<<i) != 0 {
					scores[i] = 6
				}
			}
			v, err := Evaluate(scores)
			require.NoError(t, err)
			assert.NotEqual(t, RuleFiveSixOnly, v.Rule, "scores %v", scores)
		}
	}
}
