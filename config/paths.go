package config

import (
	"slices"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// Exempt final path segments.
const (
	SegmentHealth = "healthz"
	SegmentDocs   = "openapi-docs"
)

// PathPolicy classifies request paths by their final segment. Paths ending in
// one of its segments skip authentication.
type PathPolicy struct {
	segments []string
}

// NewPathPolicy returns a policy exempting healthz and extra.
func NewPathPolicy(extra ...string) PathPolicy {
	segments := []string{SegmentHealth}
	for _, s := range extra {
		if s != "" && !slices.Contains(segments, s) {
			segments = append(segments, s)
		}
	}
	return PathPolicy{segments: segments}
}

// Unprotected reports whether path skips authentication.
func (p PathPolicy) Unprotected(path string) bool {
	return slices.Contains(p.segments, sessions.LastSegment(path))
}

// Segments returns the exempt segments.
func (p PathPolicy) Segments() []string {
	return slices.Clone(p.segments)
}
