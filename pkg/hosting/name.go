package hosting

import (
	"fmt"
	"strings"
)

// maxProjectNameLen caps sanitized names well under the platform's
// 100-character project name limit, leaving room for the variation suffix.
const maxProjectNameLen = 40

// SanitizeProjectName derives a platform-safe identifier from a business
// name: lowercased, runs of non-alphanumerics collapsed to single hyphens,
// leading and trailing hyphens stripped, length capped.
func SanitizeProjectName(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > maxProjectNameLen {
		s = strings.Trim(s[:maxProjectNameLen], "-")
	}
	if s == "" {
		s = "site"
	}
	return s
}

// ProjectNameFor combines a sanitized business name with a variation
// suffix, giving each template variation its own project.
func ProjectNameFor(businessName string, variation int) string {
	return fmt.Sprintf("%s-v%d", SanitizeProjectName(businessName), variation)
}
