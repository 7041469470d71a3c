package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleCorpus = `{"paper_title":"P1","paper_decision":"Accept (Oral)","reviews":[{"rating":"9"}]}
{"paper_title":"P2","paper_decision":"Accept (Poster)","reviews":[{"rating":"7"}]}
{"paper_title":"P3","paper_decision":"Reject","reviews":[{"rating":"5"}]}
not json
{"paper_title":"P4","paper_decision":"Reject","reviews":[{"rating":"3"}]}
`

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"paperctl"}, args...))
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)

	out, err := run(t, "validate", path)
	require.NoError(t, err)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Report)
	assert.Equal(t, 5, reports[0].Report.TotalLines)
	assert.Equal(t, 4, reports[0].Report.ValidPapers)
	assert.Equal(t, 1, reports[0].Report.IssueLines)
	assert.Equal(t, 2, reports[0].Report.AcceptedPapers)
	assert.InDelta(t, 0.5, reports[0].Report.AcceptanceRate, 1e-9)
}

func TestValidateUnusableFile(t *testing.T) {
	good := writeCorpus(t, sampleCorpus)
	bad := writeCorpus(t, "garbage\n")

	out, err := run(t, "validate", good, bad, filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, ErrUnusableCorpus)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)
	assert.Empty(t, reports[0].Error)
	assert.False(t, reports[1].Report.Usable())
	assert.NotEmpty(t, reports[2].Error)
}

func TestValidateYAMLOutput(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)

	out, err := run(t, "--format", "yaml", "validate", path)
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	report := reports[0]["report"].(map[string]any)
	assert.Equal(t, 4, report["valid_papers"])
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "validate", "x")
	assert.Error(t, err)
}

func TestPredictCommand(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)

	out, err := run(t, "predict", "--scores", "6, 6", "--year", "2025", "--corpus", "2024="+path, "--seed", "42")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "rule_threshold_with_historical_ranking", res["prediction_method"])
	assert.Equal(t, "all_positive", res["rule"])
	assert.Equal(t, 3.0, res["rank_in_all"])
	assert.Equal(t, 3.0, res["rank_in_accepted"])
	assert.Equal(t, 4.0, res["total_papers"])
	assert.InDelta(t, 0.5, res["percentile"], 1e-9)

	p := res["probability"].(float64)
	assert.GreaterOrEqual(t, p, 0.85)
	assert.LessOrEqual(t, p, 0.95)

	again, err := run(t, "predict", "--scores", "6,6", "--year", "2025", "--corpus", "2024="+path, "--seed", "42")
	require.NoError(t, err)
	var res2 map[string]any
	require.NoError(t, json.Unmarshal([]byte(again), &res2))
	assert.Equal(t, p, res2["probability"])
}

func TestPredictWithoutCorpus(t *testing.T) {
	out, err := run(t, "predict", "--scores", "6,3", "--corpus", "2024="+filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "rule_threshold_with_default_ranking", res["prediction_method"])
	assert.Equal(t, 0.25, res["probability"])
	assert.Equal(t, 9000.0, res["rank_in_all"])
	assert.NotContains(t, res, "percentile")
}

func TestPredictInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing scores flag", []string{"predict"}},
		{"empty scores", []string{"predict", "--scores", " , "}},
		{"bad score", []string{"predict", "--scores", "6,high"}},
		{"nan score", []string{"predict", "--scores", "nan,7"}},
		{"bad corpus pair", []string{"predict", "--scores", "6", "--corpus", "2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCorpusCommand(t *testing.T) {
	path := writeCorpus(t, sampleCorpus)
	missing := filepath.Join(t.TempDir(), "missing.jsonl")

	out, err := run(t, "corpus", "--corpus", "2025="+missing+",2024="+path)
	require.NoError(t, err)

	var years []yearOutput
	require.NoError(t, json.Unmarshal([]byte(out), &years))
	require.Len(t, years, 2)

	assert.Equal(t, "2024", years[0].Year)
	require.NotNil(t, years[0].Summary)
	assert.Equal(t, 4, years[0].Summary.TotalPapers)
	assert.Equal(t, 1, years[0].Stats.MalformedLines)

	assert.Equal(t, "2025", years[1].Year)
	assert.Nil(t, years[1].Summary)
	assert.NotEmpty(t, years[1].Error)
}
