// Package prefs handles docwatch user preferences persistence.
// Preferences are stored in ~/.config/docwatch/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Filter selects which documents the dashboard table shows.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterProcessing Filter = "processing"
	FilterRisk       Filter = "risk"
	FilterPending    Filter = "pending"
)

var filterOrder = []Filter{FilterAll, FilterProcessing, FilterRisk, FilterPending}

// Prefs holds user preferences for docwatch.
type Prefs struct {
	Theme  string `toml:"theme"`
	Filter Filter `toml:"document_filter"`
}

const (
	defaultPrefsPath = "~/.config/docwatch/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, Filter: FilterAll}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	for _, known := range filterOrder {
		if f == known {
			return true
		}
	}
	return false
}

// Next cycles to the following filter, wrapping to FilterAll.
func (f Filter) Next() Filter {
	for i, known := range filterOrder {
		if f == known {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return FilterAll
}

// Label returns the title-cased filter name.
func (f Filter) Label() string {
	switch f {
	case FilterProcessing:
		return "Processing"
	case FilterRisk:
		return "Risk"
	case FilterPending:
		return "Pending"
	default:
		return "All"
	}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	return normalize(prefs), nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(normalize(p))
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func normalize(p Prefs) Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.Filter = Filter(strings.ToLower(strings.TrimSpace(string(p.Filter))))
	if !p.Filter.Valid() {
		p.Filter = FilterAll
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
