package service

import (
	"strings"

	"github.com/MKhiriev/go-drive-pool/models"
)

// NormalizePath trims whitespace, maps "" and "/" to the root, ensures a
// leading slash and strips trailing slashes. Trimming repeats until neither
// whitespace nor a slash is left at the end, so the result is a fixed point.
func NormalizePath(path string) string {
	for {
		trimmed := strings.TrimRight(strings.TrimSpace(path), "/")
		if trimmed == path {
			break
		}
		path = trimmed
	}
	if path == "" {
		return models.RootPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// JoinPath appends name to an already normalized parent path.
func JoinPath(parent, name string) string {
	if parent == models.RootPath {
		return models.RootPath + name
	}
	return parent + "/" + name
}
