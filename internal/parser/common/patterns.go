package common

import "regexp"

// Shared regex patterns for custom properties, used by the indexer and by
// cursor resolution.

// DefinitionRegexp matches a custom property name followed by its colon:
// `--brand-color:`. The name is capture group 1.
var DefinitionRegexp = regexp.MustCompile(`(--[^:; ]+):`)

// UsageRegexp matches a var() usage of a custom property, with or without
// a fallback: `var(--gap)`, `var( --gap )`, `var(--gap, 4px)`.
// The name is capture group 1. A nested var() inside a fallback is found by
// the next non-overlapping match.
var UsageRegexp = regexp.MustCompile(`var\(\s*(--[^\s:;,()]+)\s*[,)]`)
