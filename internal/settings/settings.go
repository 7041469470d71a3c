// Package settings persists the operator-editable service settings as JSON.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidOptions is returned when an option list does not parse
var ErrInvalidOptions = errors.New("invalid option list")

// Settings are the values shown to users and used for predictions
type Settings struct {
	Price             float64   `json:"price"`
	QRCodeURL         string    `json:"qr_code_url"`
	ContactPhone      string    `json:"contact_phone"`
	ScoreOptions      []float64 `json:"score_options"`
	ConfidenceOptions []float64 `json:"confidence_options"`
	Conference        string    `json:"conference"`
	Year              string    `json:"year"`
	PaymentWaitTime   int       `json:"payment_wait_time"`
}

// Defaults returns the settings used before anything is saved
func Defaults() Settings {
	return Settings{
		Price:             0.2,
		ScoreOptions:      []float64{1, 3, 5, 6, 8, 10},
		ConfidenceOptions: []float64{1, 2, 3, 4, 5},
		Conference:        "ICLR",
		Year:              "2024",
		PaymentWaitTime:   60,
	}
}

func (s Settings) clone() Settings {
	s.ScoreOptions = append([]float64(nil), s.ScoreOptions...)
	s.ConfidenceOptions = append([]float64(nil), s.ConfidenceOptions...)
	return s
}

// Update is an admin change request. Option lists are comma separated.
// Empty Conference or Year and a zero PaymentWaitTime keep the current value.
type Update struct {
	Price             float64 `json:"price"`
	ContactPhone      string  `json:"contact_phone"`
	ScoreOptions      string  `json:"score_options"`
	ConfidenceOptions string  `json:"confidence_options"`
	Conference        string  `json:"conference"`
	Year              string  `json:"year"`
	PaymentWaitTime   int     `json:"payment_wait_time"`
}

// ParseOptions parses "1, 3,5" into [1 3 5]. Empty items are skipped; NaN and
// infinities are rejected.
func ParseOptions(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOptions, p)
		}
		out = append(out, v)
	}
	return out, nil
}

// Store keeps the current settings in memory and mirrors them to a file
type Store struct {
	path string

	mu      sync.RWMutex
	current Settings
}

// Open loads settings from path. A missing or unreadable file yields defaults.
func Open(path string) *Store {
	s := &Store{path: path, current: Defaults()}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read settings, using defaults", "path", path, "error", err)
		}
		return s
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Warn("Failed to decode settings, using defaults", "path", path, "error", err)
		return s
	}
	s.current = loaded
	return s
}

// Get returns a copy of the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Update applies u and persists the result. Nothing changes when the option
// lists do not parse or the file cannot be written.
func (s *Store) Update(u Update) (Settings, error) {
	scores, err := ParseOptions(u.ScoreOptions)
	if err != nil {
		return Settings{}, fmt.Errorf("score_options: %w", err)
	}
	confidences, err := ParseOptions(u.ConfidenceOptions)
	if err != nil {
		return Settings{}, fmt.Errorf("confidence_options: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	next.Price = u.Price
	next.ContactPhone = u.ContactPhone
	next.ScoreOptions = scores
	next.ConfidenceOptions = confidences
	if u.Conference != "" {
		next.Conference = u.Conference
	}
	if u.Year != "" {
		next.Year = u.Year
	}
	if u.PaymentWaitTime != 0 {
		next.PaymentWaitTime = u.PaymentWaitTime
	}

	if err := s.save(next); err != nil {
		return Settings{}, err
	}
	s.current = next
	return next.clone(), nil
}

// SetQRCodeURL records the location of the uploaded payment QR code
func (s *Store) SetQRCodeURL(url string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	next.QRCodeURL = url
	if err := s.save(next); err != nil {
		return Settings{}, err
	}
	s.current = next
	return next.clone(), nil
}

func (s *Store) save(v Settings) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
