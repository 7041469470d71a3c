package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

const maxReportedIssues = 5

var requiredFields = []string{"paper_title", "paper_decision", "reviews"}

// Issue is a problem found on one line of a corpus file
type Issue struct {
	Line    int      `json:"line" yaml:"line"`
	Reasons []string `json:"reasons" yaml:"reasons"`
}

// Report summarizes the quality of a corpus file
type Report struct {
	TotalLines     int     `json:"total_lines" yaml:"total_lines"`
	ValidPapers    int     `json:"valid_papers" yaml:"valid_papers"`
	IssueLines     int     `json:"issue_lines" yaml:"issue_lines"`
	AcceptedPapers int     `json:"accepted_papers" yaml:"accepted_papers"`
	AcceptanceRate float64 `json:"acceptance_rate" yaml:"acceptance_rate"`
	ValidRatings   int     `json:"valid_ratings" yaml:"valid_ratings"`
	MinRating      float64 `json:"min_rating,omitempty" yaml:"min_rating,omitempty"`
	MaxRating      float64 `json:"max_rating,omitempty" yaml:"max_rating,omitempty"`
	MeanRating     float64 `json:"mean_rating,omitempty" yaml:"mean_rating,omitempty"`
	Issues         []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Usable reports whether the file has at least one paper the loader would keep
func (r Report) Usable() bool {
	return r.ValidPapers > 0
}

// Validate checks every line of a corpus file against the record format.
// Only the first few issues are kept in the report; all are counted.
func Validate(r io.Reader) (Report, error) {
	var rep Report
	minR, maxR, sum := math.Inf(1), math.Inf(-1), 0.0

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			rep.TotalLines++
			chk := checkLine(bytes.TrimSpace(line))
			switch {
			case chk.blank:
			case len(chk.reasons) > 0:
				rep.IssueLines++
				if len(rep.Issues) < maxReportedIssues {
					rep.Issues = append(rep.Issues, Issue{Line: rep.TotalLines, Reasons: chk.reasons})
				}
			default:
				rep.ValidPapers++
				if chk.accepted {
					rep.AcceptedPapers++
				}
				for _, s := range chk.scores {
					rep.ValidRatings++
					sum += s
					minR = math.Min(minR, s)
					maxR = math.Max(maxR, s)
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return rep, fmt.Errorf("failed to read corpus: %w", readErr)
		}
	}

	if rep.ValidPapers > 0 {
		rep.AcceptanceRate = float64(rep.AcceptedPapers) / float64(rep.ValidPapers)
	}
	if rep.ValidRatings > 0 {
		rep.MinRating = minR
		rep.MaxRating = maxR
		rep.MeanRating = sum / float64(rep.ValidRatings)
	}
	return rep, nil
}

type lineCheck struct {
	blank    bool
	reasons  []string
	scores   []float64
	accepted bool
}

func checkLine(line []byte) lineCheck {
	if len(line) == 0 {
		return lineCheck{blank: true}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return lineCheck{reasons: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}

	var reasons []string
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			reasons = append(reasons, "missing required field: "+f)
		}
	}

	var reviews []review
	if raw, ok := fields["reviews"]; ok {
		if err := json.Unmarshal(raw, &reviews); err != nil {
			reasons = append(reasons, "reviews is not a list of objects")
		}
	}

	scores := extractScores(reviews)
	if len(scores) == 0 {
		reasons = append(reasons, "no valid review ratings")
	}

	var decision string
	if raw, ok := fields["paper_decision"]; ok {
		if err := json.Unmarshal(raw, &decision); err != nil {
			reasons = append(reasons, "paper_decision is not a string")
		}
	}

	return lineCheck{
		reasons:  reasons,
		scores:   scores,
		accepted: len(reasons) == 0 && IsAccepted(decision),
	}
}
