package corpus

import (
	"sort"
	"sync/atomic"
)

// Store is the process-wide year -> corpus map. Readers never lock; a reload
// builds a fresh map and swaps it in whole.
type Store struct {
	years atomic.Pointer[map[string]*YearCorpus]
	files map[string]string
}

// NewStore creates a store over an already loaded year map
func NewStore(years map[string]*YearCorpus) *Store {
	s := &Store{}
	s.Replace(years)
	return s
}

// OpenStore loads the configured files and remembers them for Reload
func OpenStore(files map[string]string) (*Store, error) {
	years, err := LoadYears(files)
	s := NewStore(years)
	s.files = copyFiles(files)
	return s, err
}

// Get returns the corpus for a year
func (s *Store) Get(year string) (*YearCorpus, bool) {
	c, ok := s.snapshot()[year]
	return c, ok
}

// Years returns the loaded years in ascending order
func (s *Store) Years() []string {
	years := s.snapshot()
	out := make([]string, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Strings(out)
	return out
}

// Summaries returns the per-year counts
func (s *Store) Summaries() map[string]Summary {
	years := s.snapshot()
	out := make(map[string]Summary, len(years))
	for y, c := range years {
		out[y] = c.Summary()
	}
	return out
}

// Len returns the number of loaded years
func (s *Store) Len() int {
	return len(s.snapshot())
}

// Replace swaps in a new year map
func (s *Store) Replace(years map[string]*YearCorpus) {
	m := make(map[string]*YearCorpus, len(years))
	for y, c := range years {
		m[y] = c
	}
	s.years.Store(&m)
}

// Reload re-reads the files the store was opened with. The current map is kept
// when nothing loads.
func (s *Store) Reload() error {
	years, err := LoadYears(s.files)
	if err != nil {
		return err
	}
	s.Replace(years)
	return nil
}

func (s *Store) snapshot() map[string]*YearCorpus {
	if p := s.years.Load(); p != nil {
		return *p
	}
	return nil
}

func copyFiles(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for y, p := range files {
		out[y] = p
	}
	return out
}
