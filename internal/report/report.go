// Package report renders medical-record reports as HTML.
package report

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v2"
	"github.com/microcosm-cc/bluemonday"
)

// TemplateName is the view rendered for a medical-record report.
const TemplateName = "medical_record"

//go:embed templates/*.html
var templateFS embed.FS

// NewEngine returns a fiber view engine over the embedded report templates.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// View is the flattened record, patient, provider and appointment data a
// report template renders.
type View struct {
	RecordID          string
	GeneratedAt       string
	PatientName       string
	PatientEmail      string
	DateOfBirth       string
	Gender            string
	InsuranceProvider string
	InsuranceNumber   string
	ProviderName      string
	Specialty         string
	Department        string
	LicenseNumber     string
	VisitDate         string
	AppointmentAt     string
	AppointmentStatus string
	AppointmentReason string
	Diagnosis         string
	Symptoms          string
	Treatment         string
	Prescription      string
	Notes             template.HTML
}

// Sanitizer strips free-text clinical notes down to basic formatting.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "b", "i", "blockquote")
	return &Sanitizer{policy: p}
}

// Notes sanitizes s and converts bare newlines to line breaks.
func (s *Sanitizer) Notes(raw string) template.HTML {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "\r\n", "\n")
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		raw = strings.ReplaceAll(template.HTMLEscapeString(raw), "\n", "<br>")
	}
	return template.HTML(s.policy.Sanitize(raw))
}
