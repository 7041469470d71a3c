package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	minRating = 1.0
	maxRating = 10.0

	missingRating = "-1"
)

// record is one line of a formatted corpus file
type record struct {
	Title    string   `json:"paper_title"`
	Decision string   `json:"paper_decision"`
	Reviews  []review `json:"reviews"`
}

type review struct {
	Rating     json.RawMessage `json:"rating"`
	Confidence json.RawMessage `json:"confidence"`
}

// IsAccepted reports whether a decision string denotes acceptance
func IsAccepted(decision string) bool {
	return strings.Contains(strings.ToLower(decision), "accept")
}

// ParseRating extracts a numeric rating from a raw JSON value.
// Strings are cut at the first colon ("6: marginally above") before parsing.
// The second return is false for sentinels, unparsable values, NaN and values outside [1,10].
func ParseRating(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		text = s
	}

	text, _, _ = strings.Cut(text, ":")
	text = strings.TrimSpace(text)
	if text == "" || text == missingRating {
		return 0, false
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	// written so NaN fails the range check
	if !(v >= minRating && v <= maxRating) {
		return 0, false
	}
	return v, true
}

// extractScores returns the valid ratings of a record in review order
func extractScores(reviews []review) []float64 {
	scores := make([]float64, 0, len(reviews))
	for _, r := range reviews {
		if v, ok := ParseRating(r.Rating); ok {
			scores = append(scores, v)
		}
	}
	return scores
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Build assembles a YearCorpus from scored papers, sorting both views by
// average score descending. Equal scores keep their input order.
func Build(papers []ScoredPaper) *YearCorpus {
	all := make([]ScoredPaper, len(papers))
	copy(all, papers)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].AverageScore > all[j].AverageScore
	})

	accepted := make([]ScoredPaper, 0, len(all)/3)
	for _, p := range all {
		if p.Accepted() {
			accepted = append(accepted, p)
		}
	}

	c := &YearCorpus{
		AllPapers:      all,
		AcceptedPapers: accepted,
		TotalCount:     len(all),
		AcceptedCount:  len(accepted),
	}
	if c.TotalCount > 0 {
		c.AcceptanceRate = float64(c.AcceptedCount) / float64(c.TotalCount)
	}
	return c
}

// Parse reads newline-delimited paper records and builds a corpus from them.
// Malformed lines are skipped; only a failure of the reader itself is returned.
func Parse(r io.Reader) (*YearCorpus, LoadStats, error) {
	var stats LoadStats
	papers := make([]ScoredPaper, 0, 1024)

	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			stats.Lines++
			if p, ok := parseLine(line, stats.Lines, &stats); ok {
				papers = append(papers, p)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, stats, fmt.Errorf("failed to read corpus: %w", readErr)
		}
	}

	return Build(papers), stats, nil
}

func parseLine(line []byte, lineNum int, stats *LoadStats) (ScoredPaper, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return ScoredPaper{}, false
	}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		stats.MalformedLines++
		slog.Warn("Skipping malformed corpus line", "line", lineNum, "error", err)
		return ScoredPaper{}, false
	}
	stats.Records++

	scores := extractScores(rec.Reviews)
	if len(scores) == 0 {
		stats.Unrated++
		return ScoredPaper{}, false
	}

	return ScoredPaper{
		Title:        rec.Title,
		AverageScore: mean(scores),
		RawScores:    scores,
		Decision:     strings.ToLower(rec.Decision),
	}, true
}

// LoadFile parses a corpus file from disk
func LoadFile(path string) (*YearCorpus, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	c, stats, err := Parse(f)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, stats, nil
}

// LoadYears loads one corpus file per year. Years whose file cannot be read
// or yields no papers are left out; the error only reports that nothing loaded.
func LoadYears(files map[string]string) (map[string]*YearCorpus, error) {
	years := make(map[string]*YearCorpus, len(files))

	for year, path := range files {
		c, stats, err := LoadFile(path)
		if err != nil {
			slog.Warn("Historical data unavailable", "year", year, "path", path, "error", err)
			continue
		}
		if c.Empty() {
			slog.Warn("Historical data file has no rated papers", "year", year, "path", path,
				"lines", stats.Lines, "malformed_lines", stats.MalformedLines)
			continue
		}

		years[year] = c
		slog.Info("Historical data loaded",
			"year", year,
			"papers", c.TotalCount,
			"accepted", c.AcceptedCount,
			"acceptance_rate", c.AcceptanceRate,
			"malformed_lines", stats.MalformedLines,
			"unrated", stats.Unrated,
		)
	}

	if len(years) == 0 && len(files) > 0 {
		return years, ErrNoCorpus
	}
	return years, nil
}

// ErrNoCorpus is returned when none of the configured corpus files loaded
var ErrNoCorpus = errors.New("no historical corpus loaded")
