package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestStoreGet(t *testing.T) {
	c := Build([]ScoredPaper{{AverageScore: 6, RawScores: []float64{6}, Decision: "accept"}})
	s := NewStore(map[string]*YearCorpus{"2024": c})

	got, ok := s.Get("2024")
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = s.Get("2019")
	assert.False(t, ok)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"2024"}, s.Years())
	assert.Equal(t, Summary{TotalPapers: 1, AcceptedPapers: 1, AcceptanceRate: 1}, s.Summaries()["2024"])
}

func TestStoreZeroValue(t *testing.T) {
	var s Store
	_, ok := s.Get("2024")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Years())
}

func TestStoreReplaceCopiesMap(t *testing.T) {
	years := map[string]*YearCorpus{"2024": Build(nil)}
	s := NewStore(years)
	years["2025"] = Build(nil)

	assert.Equal(t, 1, s.Len())
}

func TestOpenStoreAndReload(t *testing.T) {
	dir := t.TempDir()
	path := writeCorpus(t, dir, "2024.jsonl",
		`{"paper_title":"A","paper_decision":"Accept","reviews":[{"rating":"8"}]}`+"\n")

	s, err := OpenStore(map[string]string{"2024": path})
	require.NoError(t, err)
	c, _ := s.Get("2024")
	assert.Equal(t, 1, c.TotalCount)

	writeCorpus(t, dir, "2024.jsonl",
		`{"paper_title":"A","paper_decision":"Accept","reviews":[{"rating":"8"}]}`+"\n"+
			`{"paper_title":"B","paper_decision":"Reject","reviews":[{"rating":"3"}]}`+"\n")

	require.NoError(t, s.Reload())
	c, _ = s.Get("2024")
	assert.Equal(t, 2, c.TotalCount)
	assert.InDelta(t, 0.5, c.AcceptanceRate, 1e-9)
}

func TestReloadKeepsCurrentOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCorpus(t, dir, "2024.jsonl",
		`{"paper_title":"A","paper_decision":"Accept","reviews":[{"rating":"8"}]}`+"\n")

	s, err := OpenStore(map[string]string{"2024": path})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, s.Reload(), ErrNoCorpus)

	_, ok := s.Get("2024")
	assert.True(t, ok)
}

func TestOpenStoreWithoutFiles(t *testing.T) {
	s, err := OpenStore(map[string]string{"2024": filepath.Join(t.TempDir(), "missing.jsonl")})
	assert.ErrorIs(t, err, ErrNoCorpus)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
}
