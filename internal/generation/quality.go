package generation

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// defaultMinHTMLLength is the size below which a document is considered
// truncated or trivially incomplete.
const defaultMinHTMLLength = 1200

var placeholderPatterns = []string{
	"lorem ipsum",
	"[business name]",
	"[your business]",
	"[phone]",
	"[address]",
	"your company name",
	"insert your",
	"placeholder",
	"example.com/image",
	"xxx-xxx-xxxx",
	"(555) 555-5555",
}

var boilerplateHeadings = []string{
	"welcome to our website",
	"your trusted partner",
	"we are the best",
	"quality you can trust",
}

var unfilledSlotRe = regexp.MustCompile(`\{\{[^}]*\}\}|\{[A-Z_]+\}`)

// Report holds the outcome of a quality scan. Issues are hard red flags;
// warnings are softer concerns. Neither blocks persistence; the scan is
// diagnostic output for the operator.
type Report struct {
	Issues   []string
	Warnings []string
}

// Clean reports whether the scan found no hard issues.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// Log emits the report through the global logger.
func (r *Report) Log(business, template string) {
	if len(r.Issues) == 0 && len(r.Warnings) == 0 {
		return
	}
	fields := []zap.Field{
		zap.String("business", business),
		zap.String("template", template),
	}
	if len(r.Issues) > 0 {
		zap.L().Warn("generated site has quality issues",
			append(fields, zap.Strings("issues", r.Issues))...)
	}
	if len(r.Warnings) > 0 {
		zap.L().Info("generated site has quality warnings",
			append(fields, zap.Strings("warnings", r.Warnings))...)
	}
}

// QualityChecker scans generated HTML for known AI-shortcut red flags.
type QualityChecker struct {
	// MinLength overrides the default minimum document size when positive.
	MinLength int
}

// NewQualityChecker creates a checker with default thresholds.
func NewQualityChecker() *QualityChecker {
	return &QualityChecker{MinLength: defaultMinHTMLLength}
}

// Check scans one document. It never fails; problems land in the report.
func (q *QualityChecker) Check(html string) *Report {
	r := &Report{}
	lower := strings.ToLower(html)

	minLen := q.MinLength
	if minLen <= 0 {
		minLen = defaultMinHTMLLength
	}
	if len(html) < minLen {
		r.Issues = append(r.Issues, "document under minimum length")
	}
	if !strings.Contains(lower, "</html>") || !strings.Contains(lower, "</body>") {
		r.Issues = append(r.Issues, "truncated or incomplete markup")
	}
	for _, p := range placeholderPatterns {
		if strings.Contains(lower, p) {
			r.Issues = append(r.Issues, "placeholder text: "+p)
		}
	}
	for _, h := range boilerplateHeadings {
		if strings.Contains(lower, h) {
			r.Issues = append(r.Issues, "boilerplate heading: "+h)
		}
	}
	if unfilledSlotRe.MatchString(html) {
		r.Issues = append(r.Issues, "unfilled template slot")
	}
	if containsEmoji(html) {
		r.Issues = append(r.Issues, "emoji in content")
	}

	if !strings.Contains(lower, "application/ld+json") {
		r.Warnings = append(r.Warnings, "no structured data")
	}
	if !strings.Contains(lower, "og:title") {
		r.Warnings = append(r.Warnings, "no social preview tags")
	}
	if !strings.Contains(lower, "$") && !strings.Contains(lower, "price") {
		r.Warnings = append(r.Warnings, "no pricing information")
	}
	if !strings.Contains(lower, "scroll-behavior") {
		r.Warnings = append(r.Warnings, "no smooth scrolling")
	}

	return r
}

func containsEmoji(s string) bool {
	for _, r := range s {
		if r >= 0x1F300 && r <= 0x1FAFF {
			return true
		}
		if unicode.Is(unicode.So, r) && r > 0x2600 && r < 0x27C0 {
			return true
		}
	}
	return false
}
