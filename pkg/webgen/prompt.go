package webgen

import (
	"fmt"
	"strings"
)

// BuildPrompt assembles the generation prompt for one business and
// template. Only facts that are present make it into the prompt so the
// model does not invent values for blank fields.
func BuildPrompt(biz BusinessInfo, tmpl Template) string {
	var b strings.Builder

	b.WriteString("You are a professional web designer. Create a complete, single-file HTML marketing website for the local business described below.\n\n")

	b.WriteString("Business facts:\n")
	writeFact(&b, "Name", biz.Name)
	writeFact(&b, "Type of business", biz.Category)
	writeFact(&b, "Address", biz.Address)
	if biz.City != "" {
		writeFact(&b, "Location", strings.TrimSuffix(biz.City+", "+biz.State, ", "))
	}
	writeFact(&b, "Phone", biz.Phone)
	writeFact(&b, "Email", biz.Email)

	fmt.Fprintf(&b, "\nStyle direction (%s): %s\n\n", tmpl.Name, tmpl.Directive)

	b.WriteString(`Requirements:
- One self-contained HTML document with embedded CSS. No external stylesheets, scripts, or image files.
- Sections: hero with the business name and a tagline, services relevant to this type of business, about, and a contact section showing the real phone and address given above.
- Mobile responsive.
- Use only the facts provided. Do not invent prices, reviews, staff names, or an email address if none was given.
- Respond with the HTML document only. No commentary, no markdown fences.`)

	return b.String()
}

func writeFact(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
