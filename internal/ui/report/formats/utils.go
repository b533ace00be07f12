package formats

import (
	"path/filepath"
)

// relativeURI prefers the report's relative path and falls back to the
// file's own path. SARIF URIs use forward slashes.
func relativeURI(relPath, filePath string) string {
	if relPath != "" {
		return filepath.ToSlash(relPath)
	}
	return filepath.ToSlash(filePath)
}
