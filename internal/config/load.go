package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

// EnvPrefix prefixes the environment variables read by Load
const EnvPrefix = "CPLS_"

// LoadOptions controls Load
type LoadOptions struct {
	// Fs is the filesystem package.json is read from; nil means the OS
	Fs afero.Fs
	// Root is the workspace root holding package.json; empty skips it
	Root string
	// File is an optional .json, .yaml or .yml config file
	File string
	// Overrides are applied last, typically from command-line flags
	Overrides map[string]any
}

// Load builds the configuration for the command line. Sources, lowest to
// highest precedence: defaults, the package.json section, the config file,
// CPLS_* environment variables, overrides.
func Load(opts LoadOptions) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Default().toMap(), "."), nil); err != nil {
		return Default(), fmt.Errorf("loading defaults: %w", err)
	}

	if opts.Root != "" {
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		section, err := ReadPackageJSON(fs, opts.Root)
		if err != nil {
			return Default(), err
		}
		if section != nil {
			if err := k.Load(confmap.Provider(normalize(section), "."), nil); err != nil {
				return Default(), fmt.Errorf("loading package.json settings: %w", err)
			}
		}
	}

	if opts.File != "" {
		parser, err := parserFor(opts.File)
		if err != nil {
			return Default(), err
		}
		if err := k.Load(file.Provider(opts.File), parser); err != nil {
			return Default(), fmt.Errorf("loading %s: %w", opts.File, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return Default(), fmt.Errorf("loading environment: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(normalize(opts.Overrides), "."), nil); err != nil {
			return Default(), fmt.Errorf("loading overrides: %w", err)
		}
	}

	return unmarshal(k)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return YAML(), nil
	}
	return nil, fmt.Errorf("unsupported config file %s: want .json, .yaml or .yml", path)
}

// transformEnv maps CPLS_FILES, CPLS_LANGUAGES and CPLS_LOG_LEVEL to
// configuration keys. Lists are comma separated. Unknown variables are
// dropped.
func transformEnv(key, value string) (string, any) {
	switch strings.TrimPrefix(key, EnvPrefix) {
	case "FILES":
		return "files", splitList(value)
	case "LANGUAGES":
		return "languages", splitList(value)
	case "LOG_LEVEL":
		return "logLevel", value
	}
	return "", nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
