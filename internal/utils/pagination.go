// Package utils provides small helpers shared by the handlers and services
// that carry no domain logic.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
// Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// ClampPage forces page to at least 1 and limit into [1, maxLimit], using
// defLimit for a non-positive limit.
func ClampPage(page, limit, defLimit, maxLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}

// ParsePage reads page and limit query values and clamps them.
func ParsePage(page, limit string, defLimit, maxLimit int) Page {
	return ClampPage(AtoiDefault(page, 1), AtoiDefault(limit, defLimit), defLimit, maxLimit)
}
