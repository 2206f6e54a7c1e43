package storage

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/ftpsync/internal/platform"
)

// Walk returns every entry below start, depth first, fully materialized.
//
// Depth counts directory levels: the immediate children of start are at
// depth 0 and maxDepth 0 returns only them. There is no cycle detection,
// maxDepth is the only bound on a self-referential tree.
func Walk(ctx context.Context, backend Backend, start string, maxDepth int) ([]Entry, error) {
	return walk(ctx, backend, platform.CleanRemote(start), 0, maxDepth)
}

func walk(ctx context.Context, backend Backend, dir string, depth, maxDepth int) ([]Entry, error) {
	entries, err := backend.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	var result []Entry
	for _, entry := range entries {
		result = append(result, entry)

		if !entry.IsDir || platform.IsDotEntry(entry.Name) || depth >= maxDepth {
			continue
		}

		children, err := walk(ctx, backend, entry.Path, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		result = append(result, children...)
	}

	return result, nil
}

// Search walks start and returns the entries matching a doublestar pattern.
// Patterns without '/' are matched against entry names, others against
// the path relative to start.
func Search(ctx context.Context, backend Backend, start, pattern string, maxDepth int) ([]Entry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, NewError(KindConfiguration, "search", start, doublestar.ErrBadPattern)
	}

	start = platform.CleanRemote(start)
	entries, err := Walk(ctx, backend, start, maxDepth)
	if err != nil {
		return nil, err
	}

	matchPath := strings.Contains(pattern, "/")
	var matches []Entry
	for _, entry := range entries {
		subject := entry.Name
		if matchPath {
			subject = platform.RelRemote(start, entry.Path)
		}
		if ok, _ := doublestar.Match(pattern, subject); ok {
			matches = append(matches, entry)
		}
	}

	return matches, nil
}
