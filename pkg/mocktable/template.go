package mocktable

import "strings"

// paramPlaceholder replaces variable path segments in endpoint
// templates.
const paramPlaceholder = ":id"

// EndpointTemplate derives a route template from a concrete path.
// Segments that are purely numeric, or hyphenated and longer than 30
// characters (the UUID shape), become the parameter placeholder;
// everything else is kept verbatim.
func EndpointTemplate(path string) string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}
		if isParamSegment(part) {
			segments = append(segments, paramPlaceholder)
		} else {
			segments = append(segments, part)
		}
	}

	if len(segments) == 0 {
		return path
	}
	return "/" + strings.Join(segments, "/")
}

// isParamSegment reports whether a path segment looks like a variable
// identifier rather than a literal.
func isParamSegment(part string) bool {
	if isDigits(part) {
		return true
	}
	return strings.Contains(part, "-") && len(part) > 30
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
