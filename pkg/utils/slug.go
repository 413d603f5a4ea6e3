package utils

import (
	"regexp"
	"strings"
)

const (
	// MinSlugLength is the minimum allowed slug length
	MinSlugLength = 1
	// MaxSlugLength is the maximum allowed slug length
	MaxSlugLength = 120
)

var (
	// slugRegex validates slug format
	slugRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

	// Reserved slugs that cannot be used for landing pages
	reservedSlugs = map[string]bool{
		"api":    true,
		"admin":  true,
		"health": true,
		"assets": true,
		"static": true,
	}
)

// IsValidSlug checks if a page slug is valid
func IsValidSlug(slug string) bool {
	slug = strings.ToLower(slug)

	if len(slug) < MinSlugLength || len(slug) > MaxSlugLength {
		return false
	}

	// Lowercase alphanumeric and hyphens, no leading/trailing hyphens
	if !slugRegex.MatchString(slug) {
		return false
	}

	if reservedSlugs[slug] {
		return false
	}

	return true
}

// IsReservedSlug checks if a slug is reserved
func IsReservedSlug(slug string) bool {
	return reservedSlugs[strings.ToLower(slug)]
}

// NormalizeSlug normalizes a slug (lowercase, trim)
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// NormalizeHostname strips a port and lowercases a Host header value.
func NormalizeHostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
