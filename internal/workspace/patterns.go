package workspace

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Matches reports whether an absolute path is selected by any configured
// pattern. Relative patterns are anchored at the workspace root.
func (c *Coordinator) Matches(absPath string) bool {
	for _, pattern := range c.Patterns() {
		base, rel := c.split(pattern)
		target, ok := relativeTo(base, absPath)
		if !ok {
			continue
		}
		// doublestar.Match expects forward slashes, but Windows paths use backslashes
		if matched, err := doublestar.Match(rel, target); err == nil && matched {
			return true
		}
	}
	return false
}

// glob expands one pattern to absolute file paths
func (c *Coordinator) glob(pattern string) ([]string, error) {
	base, rel := c.split(pattern)
	if !doublestar.ValidatePattern(rel) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	fsys := afero.NewIOFS(afero.NewBasePathFs(c.fs, base))
	matches, err := doublestar.Glob(fsys, rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(base, filepath.FromSlash(m))
	}
	return out, nil
}

// split returns the directory a pattern is anchored at and the pattern
// relative to it, in slash form
func (c *Coordinator) split(pattern string) (base, rel string) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		base = string(filepath.Separator)
		if vol := filepath.VolumeName(pattern); vol != "" {
			base = vol + base
			pattern = pattern[len(vol):]
		}
		return base, strings.TrimPrefix(pattern, "/")
	}
	return c.root, pattern
}

func relativeTo(base, absPath string) (string, bool) {
	rel, err := filepath.Rel(base, filepath.Clean(absPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
