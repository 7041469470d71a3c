package main

import (
	"fmt"
	"sort"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
)

var corpusCmd = &urfave.Command{
	Name:    "corpus",
	Aliases: []string{"c"},
	Usage:   "Load corpus files and print per-year counts",
	Action:  cmdCorpus,
	Flags: []urfave.Flag{
		corpusFlag,
	},
}

type yearOutput struct {
	Year    string           `json:"year" yaml:"year"`
	Path    string           `json:"path" yaml:"path"`
	Summary *corpus.Summary  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Stats   corpus.LoadStats `json:"load_stats" yaml:"load_stats"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func cmdCorpus(c *urfave.Context) error {
	files, err := corpusFiles(c)
	if err != nil {
		return err
	}

	years := make([]string, 0, len(files))
	for y := range files {
		years = append(years, y)
	}
	sort.Strings(years)

	out := make([]yearOutput, 0, len(years))
	for _, y := range years {
		yo := yearOutput{Year: y, Path: files[y]}
		yc, stats, err := corpus.LoadFile(files[y])
		yo.Stats = stats
		if err != nil {
			yo.Error = err.Error()
		} else {
			sum := yc.Summary()
			yo.Summary = &sum
		}
		out = append(out, yo)
	}

	if err := encode(c, out); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
