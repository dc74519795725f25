package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
)

// ReadPackageJSON returns the cssCustomProperties object of the
// package.json in root. A missing file or section is not an error and
// yields nil.
func ReadPackageJSON(fsys afero.Fs, root string) (map[string]any, error) {
	if root == "" {
		return nil, nil
	}
	path := filepath.Join(root, "package.json")

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	// Parse as JSONC (allows comments)
	var pkg map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	section, ok := pkg[Section]
	if !ok {
		return nil, nil
	}
	sectionMap, ok := section.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s in package.json must be an object", Section)
	}
	return sectionMap, nil
}
