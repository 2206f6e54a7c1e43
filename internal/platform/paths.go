package platform

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a local path for the current platform
func NormalizePath(p string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(p)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(p, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// CleanRemote cleans a remote path. Remote paths always use '/'.
// An empty path is the session's working directory ".".
func CleanRemote(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// JoinRemote joins remote path elements with '/'
func JoinRemote(elem ...string) string {
	return CleanRemote(path.Join(elem...))
}

// SplitRemote splits a remote path into its parent directory and base name
func SplitRemote(p string) (dir, name string) {
	p = CleanRemote(p)
	return path.Dir(p), path.Base(p)
}

// IsRemoteRoot reports whether p names the root or the working directory
func IsRemoteRoot(p string) bool {
	p = CleanRemote(p)
	return p == "/" || p == "."
}

// IsDotEntry reports whether name is one of the self/parent directory links
func IsDotEntry(name string) bool {
	return name == "." || name == ".."
}

// RelRemote returns the remote path p relative to the directory root
func RelRemote(root, p string) string {
	root, p = CleanRemote(root), CleanRemote(p)
	if root == "." {
		return p
	}
	return strings.TrimPrefix(p, strings.TrimSuffix(root, "/")+"/")
}

// RelSlash returns target relative to base using '/' separators
func RelSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ValidatePath checks if a local path is valid for the current platform
func ValidatePath(p string) error {
	if p == "" {
		return &PathError{Path: p, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(p, char) {
				return &PathError{Path: p, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
