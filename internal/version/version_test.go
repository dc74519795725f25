package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, v, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })
}

func TestGetStamped(t *testing.T) {
	stamp(t, "v1.2.3", "unknown")
	assert.Equal(t, "v1.2.3", Get())
	assert.Equal(t, "v1.2.3", Full())
}

func TestFullShortensCommit(t *testing.T) {
	stamp(t, "v1.2.3", "0123456789abcdef")
	assert.Equal(t, "v1.2.3 (commit: 0123456)", Full())
}

func TestGetUnstamped(t *testing.T) {
	stamp(t, "dev", "unknown")
	assert.NotEmpty(t, Get())
}
