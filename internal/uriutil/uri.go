// Package uriutil converts between file:// URIs and filesystem paths.
package uriutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// PathToURI returns the file:// URI of path, made absolute first.
// Segments are percent-encoded, Windows drive paths gain a leading slash
// (file:///C:/x) and UNC paths put the server in the authority
// (file://server/share).
func PathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if runtime.GOOS == "windows" && strings.HasPrefix(path, `\\`) {
		return "file://" + escapeSegments(filepath.ToSlash(strings.TrimPrefix(path, `\\`)))
	}

	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return "file://" + escapeSegments(slashed)
}

func escapeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg != "" {
			segments[i] = url.PathEscape(seg)
		}
	}
	return strings.Join(segments, "/")
}

// URIToPath returns the filesystem path of a file:// URI. Strings that do
// not parse as file URIs are treated leniently as paths with an optional
// file:// prefix.
func URIToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return fallback(uri)
	}

	p := parsed.Path
	switch {
	case isDrive(parsed.Host):
		// file://C:/x
		p = parsed.Host + p
	case parsed.Host != "" && parsed.Host != "localhost":
		if runtime.GOOS == "windows" {
			return `\\` + parsed.Host + strings.ReplaceAll(p, "/", `\`)
		}
		return parsed.Host + p
	}
	return fromSlash(p)
}

// IsFileURI reports whether uri uses the file scheme
func IsFileURI(uri string) bool {
	return strings.HasPrefix(strings.ToLower(uri), "file:")
}

func fallback(uri string) string {
	p := uri
	if strings.HasPrefix(p, "file:///") {
		p = p[len("file://"):]
	} else {
		p = strings.TrimPrefix(p, "file://")
	}
	return fromSlash(p)
}

// fromSlash turns /C:/x into C:/x, then applies OS separators
func fromSlash(p string) string {
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

func isDrive(host string) bool {
	return len(host) == 2 && host[1] == ':' &&
		(host[0] >= 'a' && host[0] <= 'z' || host[0] >= 'A' && host[0] <= 'Z')
}
