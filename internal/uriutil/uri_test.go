package uriutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

type uriCase struct {
	name    string
	path    string
	uri     string
	windows bool
}

var cases = []uriCase{
	{name: "absolute", path: "/home/user/project", uri: "file:///home/user/project"},
	{name: "root", path: "/", uri: "file:///"},
	{name: "spaces", path: "/home/user/my project", uri: "file:///home/user/my%20project"},
	{name: "unicode", path: "/home/user/文件", uri: "file:///home/user/%E6%96%87%E4%BB%B6"},
	{name: "drive", path: `C:\project\file.css`, uri: "file:///C:/project/file.css", windows: true},
	{name: "drive with spaces", path: `C:\Foo Bar\file.css`, uri: "file:///C:/Foo%20Bar/file.css", windows: true},
	{name: "UNC", path: `\\server\share\file.css`, uri: "file://server/share/file.css", windows: true},
}

func skipUnlessPlatform(t *testing.T, windows bool) {
	t.Helper()
	if windows != (runtime.GOOS == "windows") {
		t.Skipf("not applicable on %s", runtime.GOOS)
	}
}

func TestPathToURI(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			skipUnlessPlatform(t, tc.windows)
			assert.Equal(t, tc.uri, PathToURI(tc.path))
		})
	}
}

func TestURIToPath(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			skipUnlessPlatform(t, tc.windows)
			assert.Equal(t, filepath.Clean(tc.path), filepath.Clean(URIToPath(tc.uri)))
		})
	}

	t.Run("two slashes before a drive", func(t *testing.T) {
		assert.Equal(t, "C:"+string(filepath.Separator)+"project", URIToPath("file://C:/project"))
	})

	t.Run("localhost authority", func(t *testing.T) {
		skipUnlessPlatform(t, false)
		assert.Equal(t, "/tmp/a.css", URIToPath("file://localhost/tmp/a.css"))
	})

	t.Run("bare path", func(t *testing.T) {
		skipUnlessPlatform(t, false)
		assert.Equal(t, "/tmp/a.css", URIToPath("/tmp/a.css"))
	})
}

func TestIsFileURI(t *testing.T) {
	assert.True(t, IsFileURI("file:///a.css"))
	assert.True(t, IsFileURI("FILE:///a.css"))
	assert.False(t, IsFileURI("untitled:Untitled-1"))
}
