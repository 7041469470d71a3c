package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/paper-odds/internal/config"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	formatKey = "format"
)

var (
	version = "v2.0.0-dev"

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	corpusFlag = &urfave.StringFlag{
		Name:    "corpus",
		Usage:   "Corpus files as YEAR=PATH pairs, comma separated (e.g. 2024=data/ICLR_2024.jsonl)",
		EnvVars: []string{"CORPUS_FILES"},
	}
)

func newApp() *urfave.App {
	return &urfave.App{
		Name:            "paperctl",
		Version:         version,
		Usage:           "Inspect review corpora and estimate paper acceptance offline",
		HideHelpCommand: true,
		Flags: []urfave.Flag{
			debugFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			validateCmd,
			predictCmd,
			corpusCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(true)
			}

			format := formatJSON
			switch f := c.String(formatFlag.Name); f {
			case formatJSON:
			case formatYAML, "yml":
				format = formatYAML
			default:
				return fmt.Errorf("unsupported output format: %q", f)
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[formatKey] = format
			return nil
		},
	}
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// corpusFiles resolves --corpus, falling back to the default history files
func corpusFiles(c *urfave.Context) (map[string]string, error) {
	raw := c.String(corpusFlag.Name)
	if raw == "" {
		return config.DefaultCorpusFiles(), nil
	}
	return config.ParseCorpusFiles(raw)
}

func encode(c *urfave.Context, v any) error {
	var w io.Writer = os.Stdout
	if c.App.Writer != nil {
		w = c.App.Writer
	}

	if format, _ := c.App.Metadata[formatKey].(string); format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
