package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ConfigDirName is the per-project directory holding config and snapshots.
	ConfigDirName = ".apidump"
	// ConfigFileName is the config file inside ConfigDirName.
	ConfigFileName = "config.json"
)

// ConfigDir returns <root>/.apidump
func ConfigDir(root string) string {
	return filepath.Join(root, ConfigDirName)
}

// ConfigFile returns <root>/.apidump/config.json
func ConfigFile(root string) string {
	return filepath.Join(ConfigDir(root), ConfigFileName)
}

// EnsureConfigDir creates <root>/.apidump if needed and returns it.
func EnsureConfigDir(root string) (string, error) {
	dir := ConfigDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to root
// - Returns the relative path with forward slashes
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRoot checks if a path is inside root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// DisplayPath shortens path for messages: root-relative when inside root,
// unchanged otherwise.
func DisplayPath(path string, root string) string {
	abs, err := filepath.Abs(path)
	if err != nil || !IsWithinRoot(abs, root) {
		return filepath.ToSlash(path)
	}
	rel, err := CanonicalizePath(abs, root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return rel
}
