package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
)

// ErrUnusableCorpus is returned when a validated file has no valid papers
var ErrUnusableCorpus = errors.New("corpus file has no valid papers")

var validateCmd = &urfave.Command{
	Name:      "validate",
	Aliases:   []string{"v"},
	Usage:     "Check corpus files line by line",
	ArgsUsage: "FILE...",
	UsageText: `paperctl validate data/ICLR_2024_formatted.jsonl
   paperctl --format yaml validate data/*.jsonl`,
	Action: cmdValidate,
}

type fileReport struct {
	Path   string         `json:"path" yaml:"path"`
	Report *corpus.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func cmdValidate(c *urfave.Context) error {
	if c.NArg() == 0 {
		return urfave.ShowSubcommandHelp(c)
	}

	reports := make([]fileReport, 0, c.NArg())
	unusable := 0
	for _, path := range c.Args().Slice() {
		fr := validateFile(path)
		if fr.Report == nil || !fr.Report.Usable() {
			unusable++
		}
		reports = append(reports, fr)
	}

	if err := encode(c, reports); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	if unusable > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrUnusableCorpus, unusable, len(reports))
	}
	return nil
}

func validateFile(path string) fileReport {
	f, err := os.Open(path)
	if err != nil {
		return fileReport{Path: path, Error: err.Error()}
	}
	defer f.Close()

	rep, err := corpus.Validate(f)
	if err != nil {
		return fileReport{Path: path, Error: err.Error()}
	}
	slog.Debug("validated corpus file", "path", path, "valid_papers", rep.ValidPapers, "issue_lines", rep.IssueLines)
	return fileReport{Path: path, Report: &rep}
}
