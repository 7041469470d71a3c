package analysis

import "fmt"

// Rule identifies which branch of the cascade produced a probability
type Rule int

const (
	RuleHighAverage Rule = iota + 1
	RuleLowAverage
	RuleAllPositive
	RuleAllNegative
	RuleNegativeMajority
	RuleManyNegative
	RuleSingleNegative
	RuleTwoNegative
	RuleFiveSixOnly
	RuleInterpolated
)

var ruleNames = map[Rule]string{
	RuleHighAverage:      "high_average",
	RuleLowAverage:       "low_average",
	RuleAllPositive:      "all_positive",
	RuleAllNegative:      "all_negative",
	RuleNegativeMajority: "negative_majority",
	RuleManyNegative:     "many_negative",
	RuleSingleNegative:   "single_negative",
	RuleTwoNegative:      "two_negative",
	RuleFiveSixOnly:      "five_six_only",
	RuleInterpolated:     "interpolated",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// MarshalText lets rules appear by name in JSON and YAML output
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Band is the inclusive probability range a rule draws from.
// Low == High means the rule yields a fixed value.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Fixed reports whether the band has no spread
func (b Band) Fixed() bool { return b.Low == b.High }

func (b Band) Contains(p float64) bool { return p >= b.Low && p <= b.High }

// Verdict is the outcome of the cascade before any random draw
type Verdict struct {
	Rule     Rule    `json:"rule"`
	Band     Band    `json:"band"`
	Average  float64 `json:"average"`
	Minimum  float64 `json:"minimum"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
}

// Assessment is a verdict with the probability that was drawn for it
type Assessment struct {
	Verdict
	Probability float64 `json:"probability"`
}
