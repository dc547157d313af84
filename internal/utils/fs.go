package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxFilenameLength is the maximum length for a filename
const MaxFilenameLength = 200

var (
	invalidChars = regexp.MustCompile(`[<>:"|?*\\/\x00-\x1f]`)
	dashRuns     = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFilename makes name safe to use as a single path element
func SanitizeFilename(name string) string {
	name = invalidChars.ReplaceAllString(name, "-")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-. ")
	if len(name) > MaxFilenameLength {
		name = strings.TrimRight(name[:MaxFilenameLength], "-")
	}
	if name == "" {
		return "untitled"
	}
	return name
}

// OutputPath builds dir/name.ext with name sanitized
func OutputPath(dir, name, ext string) string {
	return filepath.Join(ExpandPath(dir), SanitizeFilename(name)+"."+strings.TrimPrefix(ext, "."))
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
