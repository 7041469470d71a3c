package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/paper-odds/internal/analysis"
	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
	"github.com/ZanzyTHEbar/paper-odds/internal/predictor"
	"github.com/ZanzyTHEbar/paper-odds/internal/ranking"
	"github.com/ZanzyTHEbar/paper-odds/internal/settings"
)

var (
	scoresFlag = &urfave.StringFlag{
		Name:     "scores",
		Usage:    "Review scores, comma separated (e.g. 6,5,8)",
		Required: true,
	}

	confidencesFlag = &urfave.StringFlag{
		Name:  "confidences",
		Usage: "Reviewer confidences, comma separated (optional)",
	}

	yearFlag = &urfave.StringFlag{
		Name:  "year",
		Usage: "Submission year; the corpus of the year before is used for ranking",
		Value: "2025",
	}

	seedFlag = &urfave.Uint64Flag{
		Name:  "seed",
		Usage: "Seed for the probability draw (optional, default: random)",
	}

	predictCmd = &urfave.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Estimate acceptance probability and rank for a set of review scores",
		UsageText: `paperctl predict --scores 6,5,8 --corpus 2024=data/ICLR_2024_formatted.jsonl
   paperctl predict --scores 8,8,6 --year 2026 --corpus 2025=data/ICLR_2025_formatted.jsonl --seed 7`,
		Action: cmdPredict,
		Flags: []urfave.Flag{
			scoresFlag,
			confidencesFlag,
			yearFlag,
			seedFlag,
			corpusFlag,
		},
	}
)

type predictOutput struct {
	predictor.Result `yaml:",inline"`
	// set only when ranks come from a loaded corpus
	Percentile *float64 `json:"percentile,omitempty" yaml:"percentile,omitempty"`
}

func cmdPredict(c *urfave.Context) error {
	scores, err := settings.ParseOptions(c.String(scoresFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --scores: %w", err)
	}
	confidences, err := settings.ParseOptions(c.String(confidencesFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --confidences: %w", err)
	}

	files, err := corpusFiles(c)
	if err != nil {
		return err
	}
	store, err := corpus.OpenStore(files)
	if err != nil {
		slog.Warn("no corpus loaded, using default ranking", "error", err)
	}

	var src rand.Source
	if c.IsSet(seedFlag.Name) {
		seed := c.Uint64(seedFlag.Name)
		src = rand.NewPCG(seed, seed)
	}

	svc := predictor.NewService(store, analysis.NewScorer(src))
	res, err := svc.Predict(scores, confidences, c.String(yearFlag.Name))
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	out := predictOutput{Result: res}
	if res.Method == predictor.MethodHistorical {
		pos := ranking.Position{
			RankInAll:      res.RankInAll,
			RankInAccepted: res.RankInAccepted,
			TotalPapers:    res.TotalPapers,
			AcceptedPapers: res.AcceptedPapers,
		}
		pct := pos.Percentile()
		out.Percentile = &pct
	}
	return encode(c, out)
}
