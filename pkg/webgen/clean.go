package webgen

import "strings"

// ExtractHTML trims model commentary and markdown fencing from a raw
// completion, leaving just the HTML document. Models occasionally preface
// the document with prose or wrap it in a code fence despite instructions.
func ExtractHTML(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip a leading fence line such as ``` or ```html.
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}
	// And a trailing fence.
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	// Cut anything before the doctype and after the closing html tag.
	lower := strings.ToLower(s)
	if i := strings.Index(lower, "<!doctype html"); i > 0 {
		s = s[i:]
		lower = lower[i:]
	}
	if i := strings.LastIndex(lower, "</html>"); i >= 0 {
		s = s[:i+len("</html>")]
	}

	return strings.TrimSpace(s)
}
