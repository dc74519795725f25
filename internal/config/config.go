// Package config holds the server settings and loads them from defaults,
// package.json, editor settings, config files and the environment.
package config

import (
	"fmt"
	"maps"
	"slices"

	"bennypowers.dev/cpls/internal/log"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Section is the settings key shared by package.json and editor settings
const Section = "cssCustomProperties"

// Config represents the server configuration
type Config struct {
	// Files are glob patterns, relative to the workspace root, selecting
	// the stylesheets to index
	Files []string `koanf:"files" json:"files"`

	// Languages are the editor language IDs that completion, definition
	// and references answer for. Empty means none.
	Languages []string `koanf:"languages" json:"languages"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `koanf:"logLevel" json:"logLevel"`
}

// Default returns the default configuration: no files, no languages
func Default() Config {
	return Config{
		Files:     []string{},
		Languages: []string{},
		LogLevel:  "info",
	}
}

// SupportsLanguage reports whether languageID is listed in Languages
func (c Config) SupportsLanguage(languageID string) bool {
	return slices.Contains(c.Languages, languageID)
}

// Level parses LogLevel, falling back to info
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// Equal reports whether two configurations agree on every setting
func (c Config) Equal(other Config) bool {
	return slices.Equal(c.Files, other.Files) &&
		slices.Equal(c.Languages, other.Languages) &&
		c.LogLevel == other.LogLevel
}

func (c Config) toMap() map[string]any {
	return map[string]any{
		"files":     slices.Clone(c.Files),
		"languages": slices.Clone(c.Languages),
		"logLevel":  c.LogLevel,
	}
}

// Layered merges settings maps over the defaults. Later layers win; a key
// missing from a layer leaves the earlier value in place.
func Layered(layers ...map[string]any) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Default().toMap(), "."), nil); err != nil {
		return Default(), fmt.Errorf("loading defaults: %w", err)
	}
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		if err := k.Load(confmap.Provider(normalize(layer), "."), nil); err != nil {
			return Default(), fmt.Errorf("loading settings: %w", err)
		}
	}
	return unmarshal(k)
}

// SectionOf extracts the cssCustomProperties object from a settings
// payload. Payloads that are already the section itself are returned as is.
func SectionOf(settings any) (map[string]any, error) {
	m, ok := settings.(map[string]any)
	if !ok || m == nil {
		return nil, nil
	}
	section, ok := m[Section]
	if !ok {
		if hasKnownKey(m) {
			return m, nil
		}
		return nil, nil
	}
	sectionMap, ok := section.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", Section)
	}
	return sectionMap, nil
}

func hasKnownKey(m map[string]any) bool {
	for _, key := range []string{"files", "languages", "logLevel"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// normalize accepts a single string wherever a list is expected
func normalize(layer map[string]any) map[string]any {
	out := maps.Clone(layer)
	for _, key := range []string{"files", "languages"} {
		if s, ok := out[key].(string); ok {
			out[key] = []string{s}
		}
	}
	return out
}

func unmarshal(k *koanf.Koanf) (Config, error) {
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Default(), fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Files == nil {
		cfg.Files = []string{}
	}
	if cfg.Languages == nil {
		cfg.Languages = []string{}
	}
	return cfg, nil
}
