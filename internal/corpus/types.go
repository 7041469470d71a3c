package corpus

// ScoredPaper is a historical paper reduced to its valid review ratings
type ScoredPaper struct {
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	AverageScore float64   `json:"avg_score" yaml:"avg_score"`
	RawScores    []float64 `json:"scores" yaml:"scores"`
	Decision     string    `json:"decision" yaml:"decision"`
}

// Accepted reports whether the decision string marks the paper as accepted
func (p ScoredPaper) Accepted() bool {
	return IsAccepted(p.Decision)
}

// YearCorpus holds one year of scored papers, sorted by average score descending
type YearCorpus struct {
	AllPapers      []ScoredPaper `json:"all_papers" yaml:"all_papers"`
	AcceptedPapers []ScoredPaper `json:"accepted_papers" yaml:"accepted_papers"`
	TotalCount     int           `json:"total_count" yaml:"total_count"`
	AcceptedCount  int           `json:"accepted_count" yaml:"accepted_count"`
	AcceptanceRate float64       `json:"acceptance_rate" yaml:"acceptance_rate"`
}

// Empty reports whether the corpus has no papers to rank against
func (c *YearCorpus) Empty() bool {
	return c == nil || len(c.AllPapers) == 0
}

// Summary returns the corpus counts without the paper lists
func (c *YearCorpus) Summary() Summary {
	if c == nil {
		return Summary{}
	}
	return Summary{
		TotalPapers:    c.TotalCount,
		AcceptedPapers: c.AcceptedCount,
		AcceptanceRate: c.AcceptanceRate,
	}
}

// Summary is the per-year view exposed by status endpoints
type Summary struct {
	TotalPapers    int     `json:"total_papers" yaml:"total_papers"`
	AcceptedPapers int     `json:"accepted_papers" yaml:"accepted_papers"`
	AcceptanceRate float64 `json:"acceptance_rate" yaml:"acceptance_rate"`
}

// LoadStats describes what happened while parsing one corpus file
type LoadStats struct {
	Lines          int `json:"lines" yaml:"lines"`
	Records        int `json:"records" yaml:"records"`
	MalformedLines int `json:"malformed_lines" yaml:"malformed_lines"`
	Unrated        int `json:"unrated" yaml:"unrated"`
}
