package normalize

import (
	"net/url"
	"strings"
)

// ImageFieldPriority is the order in which candidate image fields from the
// upstream API are considered. The API has renamed its image fields across
// versions; keeping the priority list here means nothing else in the system
// special-cases field names.
var ImageFieldPriority = []string{
	"image_square",
	"image_transverse",
	"portrait",
	"icon",
	"imageUrl",
	"image",
	"avatar",
}

// ResolveImageURL picks the first non-empty candidate and resolves it
// against baseURL. Already-absolute candidates are returned unchanged, and a
// base-path prefix duplicated on the candidate is stripped, so resolving an
// already-resolved URL is a no-op. Returns "" when every candidate is empty.
func ResolveImageURL(baseURL string, candidates ...string) string {
	var path string
	for _, c := range candidates {
		if c != "" {
			path = c
			break
		}
	}
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	base := strings.TrimSuffix(baseURL, "/")

	// The API sometimes returns paths that already include the base path
	// segment (e.g. "/rivals/img/x.png" against a base ending in "/rivals").
	if u, err := url.Parse(base); err == nil && u.Path != "" {
		trimmed := strings.TrimPrefix(path, u.Path)
		if trimmed != path && (trimmed == "" || strings.HasPrefix(trimmed, "/")) {
			path = trimmed
		}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return base + path
}
