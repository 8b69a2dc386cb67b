package fileio

import (
	"path/filepath"
	"strings"
)

// ToUnix converts a path to the wire convention: forward slashes only.
func ToUnix(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// ToNative converts a wire path to the platform separator.
func ToNative(path string) string {
	return filepath.FromSlash(ToUnix(path))
}

// JoinUnix joins wire-format path segments with forward slashes,
// trimming duplicate separators at the seams.
func JoinUnix(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = strings.TrimLeft(p, "/")
		}
		p = strings.TrimRight(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	joined := strings.Join(cleaned, "/")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "/") && !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}

// ParentUnix returns the wire-format parent directory, empty at a root.
func ParentUnix(path string) string {
	path = strings.TrimRight(path, "/")
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// Within reports whether path lies at or beneath base. Both must be
// cleaned native paths.
func Within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
