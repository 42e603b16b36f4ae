package webgen

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// mockStyles maps template names to the palette the mock generator bakes
// into its output.
var mockStyles = map[string]struct {
	accent     string
	background string
	font       string
}{
	"modern":  {"#2563eb", "#f8fafc", "'Helvetica Neue', Arial, sans-serif"},
	"classic": {"#1e3a5f", "#faf7f0", "Georgia, 'Times New Roman', serif"},
	"bold":    {"#dc2626", "#111111", "'Arial Black', Arial, sans-serif"},
}

var defaultMockStyle = mockStyles["modern"]

var mockPage = template.Must(template.New("site").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Name}}{{if .City}} | {{.City}}, {{.State}}{{end}}</title>
<style>
body { margin: 0; font-family: {{.Font}}; background: {{.Background}}; color: #222; }
header { background: {{.Accent}}; color: #fff; padding: 4rem 2rem; text-align: center; }
section { max-width: 720px; margin: 0 auto; padding: 2rem; }
h2 { color: {{.Accent}}; }
footer { text-align: center; padding: 1.5rem; font-size: 0.85rem; color: #666; }
</style>
</head>
<body>
<header>
<h1>{{.Name}}</h1>
<p>{{.Tagline}}</p>
</header>
<section id="services">
<h2>Our Services</h2>
<p>{{.Name}} provides dependable {{.CategoryLower}} services{{if .City}} to {{.City}} and the surrounding area{{end}}. Call us for an estimate.</p>
<ul>
<li>Emergency and same-day service</li>
<li>Free written estimates with upfront pricing</li>
<li>Licensed, bonded, and insured technicians</li>
<li>Residential and commercial work</li>
</ul>
</section>
<section id="about">
<h2>About Us</h2>
<p>We are a locally owned {{.CategoryLower}} business committed to honest work and fair prices. Our team shows up on time, explains the job before it starts, and leaves the site cleaner than we found it.</p>
</section>
<section id="hours">
<h2>Hours</h2>
<p>Monday through Friday: 8:00 AM to 5:00 PM</p>
<p>Saturday: 9:00 AM to 1:00 PM</p>
<p>Sunday: Closed</p>
</section>
<section id="contact">
<h2>Contact</h2>
{{if .Phone}}<p>Phone: {{.Phone}}</p>{{end}}
{{if .Address}}<p>{{.Address}}</p>{{end}}
{{if .Email}}<p>Email: {{.Email}}</p>{{end}}
</section>
<footer>&copy; {{.Name}}</footer>
</body>
</html>`))

// MockGenerator synthesizes a complete template-styled document locally
// with no network call. Output is deterministic for a given input.
type MockGenerator struct{}

// NewMock creates a mock generator.
func NewMock() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) InMockMode() bool { return true }

func (m *MockGenerator) GenerateWebsite(ctx context.Context, biz BusinessInfo, tmpl Template) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	style, ok := mockStyles[tmpl.Name]
	if !ok {
		style = defaultMockStyle
	}

	category := biz.Category
	if category == "" {
		category = "local"
	}

	data := struct {
		Name, Tagline, CategoryLower string
		Address, City, State         string
		Phone, Email                 string
		Accent, Background, Font     template.CSS
	}{
		Name:          biz.Name,
		Tagline:       "Serving " + locality(biz) + " with pride",
		CategoryLower: strings.ToLower(category),
		Address:       biz.Address,
		City:          biz.City,
		State:         biz.State,
		Phone:         biz.Phone,
		Email:         biz.Email,
		Accent:        template.CSS(style.accent),
		Background:    template.CSS(style.background),
		Font:          template.CSS(style.font),
	}

	var buf bytes.Buffer
	if err := mockPage.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "webgen: render mock site for %q", biz.Name)
	}

	zap.L().Debug("mock website generated",
		zap.String("business", biz.Name),
		zap.String("template", tmpl.Name),
	)
	return buf.String(), nil
}

func locality(biz BusinessInfo) string {
	if biz.City == "" {
		return "our community"
	}
	if biz.State == "" {
		return biz.City
	}
	return biz.City + ", " + biz.State
}
