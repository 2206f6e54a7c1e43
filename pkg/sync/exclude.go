package sync

import (
	"bufio"
	"bytes"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// Ignore files read from the sync root
const (
	IgnoreFileName    = ".ftpignore"
	VCSIgnoreFileName = ".gitignore"
)

// BaselinePatterns are always excluded: build artifacts, version control
// directories, secrets, OS metadata and editor swap files.
var BaselinePatterns = []string{
	"node_modules/",
	"__pycache__/",
	"*.pyc",
	".git/",
	".svn/",
	".hg/",
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"id_rsa*",
	".ftpconfig",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.swp",
	"*.swo",
	"*~",
}

// Matcher is an immutable ignore rule set. Any matching rule excludes,
// there is no negation.
//
// Patterns use doublestar syntax with these additions:
//   - a trailing '/' matches the directory itself and everything below it
//   - a leading '/' anchors the pattern to the path relative to the root
//   - unanchored patterns are also tested against the bare file name,
//     so "*.tmp" matches at any depth
type Matcher struct {
	patterns []string
}

// NewMatcher builds a rule set from patterns. Blank lines and comments are
// dropped, as are malformed patterns.
func NewMatcher(patterns ...string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if !doublestar.ValidatePattern(strings.Trim(p, "/")) {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// LoadMatcher builds the rule set for a sync root: the baseline patterns,
// then the root's .ftpignore, then its .gitignore, then extra.
// Missing or unreadable ignore files contribute nothing.
func LoadMatcher(local *storage.Local, root string, extra []string) *Matcher {
	patterns := append([]string(nil), BaselinePatterns...)
	for _, name := range []string{IgnoreFileName, VCSIgnoreFileName} {
		data, err := local.ReadFile(local.Join(root, name))
		if err != nil {
			continue
		}
		patterns = append(patterns, ParseIgnoreFile(data)...)
	}
	patterns = append(patterns, extra...)
	return NewMatcher(patterns...)
}

// ParseIgnoreFile splits newline-delimited ignore file content into
// patterns, skipping blank lines and '#' comments
func ParseIgnoreFile(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// Patterns returns a copy of the rule list in insertion order
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Matches reports whether candidate, a local path below root, is excluded
func (m *Matcher) Matches(candidate, root string) bool {
	rel, err := platform.RelSlash(root, candidate)
	if err != nil {
		rel = filepath.ToSlash(candidate)
	}
	return m.Match(rel)
}

// Match reports whether a '/'-separated path relative to the root is excluded
func (m *Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(rel), "./")
	name := path.Base(rel)

	for _, pattern := range m.patterns {
		if matchPattern(pattern, rel, name) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, rel, name string) bool {
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	candidates := []string{pattern}
	if strings.HasSuffix(pattern, "/") {
		pattern = strings.TrimSuffix(pattern, "/")
		candidates = []string{pattern, pattern + "/**"}
	}

	for _, p := range candidates {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	if anchored {
		return false
	}

	ok, _ := doublestar.Match(pattern, name)
	return ok
}
