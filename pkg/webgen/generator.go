// Package webgen turns business facts into single-file marketing websites
// through an AI text-generation provider. Providers are interchangeable
// behind the Generator interface; a deterministic mock generator is
// selected whenever no provider credential is configured.
package webgen

import "context"

// BusinessInfo carries the facts embedded into a generation prompt.
type BusinessInfo struct {
	Name     string
	Category string
	Address  string
	City     string
	State    string
	Phone    string
	Email    string
}

// Template identifies one visual style variant.
type Template struct {
	Name      string
	Directive string
}

// Templates is the fixed ordered list of style variants. A generation run
// producing N variations uses the first N entries.
var Templates = []Template{
	{
		Name: "modern",
		Directive: "Clean and modern with a bold hero section, generous whitespace, " +
			"a sans-serif typeface, and a single strong accent color.",
	},
	{
		Name: "classic",
		Directive: "Traditional and trustworthy with a serif typeface, a muted " +
			"navy-and-cream palette, and a conventional top navigation bar.",
	},
	{
		Name: "bold",
		Directive: "High-contrast and energetic with large display type, full-bleed " +
			"color blocks, and prominent call-to-action buttons.",
	},
}

// TemplatesFor returns the first n templates. Values outside 1..len are
// clamped.
func TemplatesFor(n int) []Template {
	if n < 1 {
		n = 1
	}
	if n > len(Templates) {
		n = len(Templates)
	}
	return Templates[:n]
}

// Generator produces one HTML document per call.
type Generator interface {
	// GenerateWebsite returns a complete HTML document for the business in
	// the given template style.
	GenerateWebsite(ctx context.Context, biz BusinessInfo, tmpl Template) (string, error)

	// InMockMode reports whether the generator is the offline deterministic
	// substitute.
	InMockMode() bool
}
