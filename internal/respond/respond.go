// Package respond extracts structured file edits from free-text agent
// output. The grammar is deliberately small: a marker line naming a path,
// followed by a fenced block holding the complete replacement content for
// that path. Agents never emit diffs.
package respond

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoFiles is returned when a response contains no extractable file blocks.
var ErrNoFiles = errors.New("no file blocks found in response")

// NoChangesSentinel short-circuits refactorer parsing: its presence anywhere
// in a response means a deliberate no-op, not a failure. Matched
// case-insensitively.
const NoChangesSentinel = "NO_CHANGES_NEEDED"

var (
	fileBlockRe = regexp.MustCompile("(?s)FILE:[ \t]*(.+?)\n```[a-zA-Z0-9_+-]*\n(.*?)\n```")
	pathLineRe  = regexp.MustCompile(`FILE_PATH:[ \t]*(.+)`)
	fenceRe     = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n(.*?)\n```")
)

// ExtractFiles parses every `FILE: <path>` marker followed by a fenced block
// and returns the path to content mapping. When the same path appears more
// than once the last occurrence wins. Zero blocks is a parse failure.
func ExtractFiles(text string) (map[string]string, error) {
	files := make(map[string]string)
	for _, m := range fileBlockRe.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(m[1])
		if path == "" {
			continue
		}
		files[path] = m[2]
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// ExtractSingle parses the tester variant: one `FILE_PATH: <path>` marker
// and the first fenced block in the response.
func ExtractSingle(text string) (path, content string, err error) {
	pm := pathLineRe.FindStringSubmatch(text)
	if pm == nil {
		return "", "", ErrNoFiles
	}
	cm := fenceRe.FindStringSubmatch(text)
	if cm == nil {
		return "", "", ErrNoFiles
	}
	return strings.TrimSpace(pm[1]), cm[1], nil
}

// IsNoChanges reports whether the response carries the no-change sentinel.
func IsNoChanges(text string) bool {
	return strings.Contains(strings.ToUpper(text), NoChangesSentinel)
}
