// Package render turns a validation outcome into markup with a Liquid
// template, and that markup into terminal output.
package render

import (
	_ "embed"
	"os"
	"strings"

	html2md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/charmbracelet/glamour"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/morikuni/failure/v2"
	"github.com/osteele/liquid"
)

type ErrorCode string

const (
	// ErrRender is returned when a template cannot be parsed or rendered
	ErrRender ErrorCode = "RenderError"

	// ErrInvalidFilter is returned for an unknown severity filter
	ErrInvalidFilter ErrorCode = "InvalidFilter"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

//go:embed outcome.liquid
var DefaultTemplate string

// Filter restricts the rendered issues to one severity
type Filter string

const (
	FilterAll     Filter = ""
	FilterError   Filter = "error"
	FilterWarning Filter = "warning"
	FilterInfo    Filter = "info"
)

// ParseFilter accepts "", "all", "error", "warning", "info" and "information"
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return FilterAll, nil
	case "error", "errors":
		return FilterError, nil
	case "warning", "warnings":
		return FilterWarning, nil
	case "info", "information":
		return FilterInfo, nil
	default:
		return FilterAll, failure.New(ErrInvalidFilter,
			failure.Message("Severity must be one of error, warning, info"),
			failure.Context{"severity": s},
		)
	}
}

// severity is the outcome value the filter keeps
func (f Filter) severity() outcome.Severity {
	if f == FilterInfo {
		return outcome.SeverityInformation
	}
	return outcome.Severity(f)
}

// Renderer renders outcomes with one template
type Renderer struct {
	engine   *liquid.Engine
	template string
}

// New returns a renderer for template source; "" selects DefaultTemplate
func New(template string) *Renderer {
	if template == "" {
		template = DefaultTemplate
	}
	return &Renderer{
		engine:   liquid.NewEngine(),
		template: template,
	}
}

// LoadTemplate reads a template file; an empty path returns DefaultTemplate
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", renderError("Error loading template", err)
	}
	return string(b), nil
}

// Bindings returns the template data: a deep copy of o with the issue list
// narrowed to the filter, plus the filter itself under "filter".
func Bindings(o *outcome.Outcome, f Filter) (map[string]any, error) {
	data, err := o.Snapshot()
	if err != nil {
		return nil, renderError("Error processing validation result", err)
	}

	if f != FilterAll {
		issues, _ := data["issue"].([]any)
		kept := make([]any, 0, len(issues))
		for _, issue := range issues {
			m, ok := issue.(map[string]any)
			if !ok {
				continue
			}
			if sev, _ := m["severity"].(string); sev == string(f.severity()) {
				kept = append(kept, m)
			}
		}
		data["issue"] = kept
	}
	data["filter"] = string(f)
	return data, nil
}

// HTML renders o with the template
func (r *Renderer) HTML(o *outcome.Outcome, f Filter) (string, error) {
	data, err := Bindings(o, f)
	if err != nil {
		return "", err
	}

	out, serr := r.engine.ParseAndRenderString(r.template, data)
	if serr != nil {
		return "", renderError("Error rendering template", serr)
	}
	return out, nil
}

// Markdown renders o and converts the markup to markdown
func (r *Renderer) Markdown(o *outcome.Outcome, f Filter) (string, error) {
	html, err := r.HTML(o, f)
	if err != nil {
		return "", err
	}

	conv := html2md.NewConverter("", true, &html2md.Options{})
	conv.Use(plugin.Table())
	md, err := conv.ConvertString(html)
	if err != nil {
		return "", renderError("Error rendering template", err)
	}
	return md, nil
}

// Terminal renders o as styled text wrapped at width columns.
// Plain output drops colours for pipes and files.
func (r *Renderer) Terminal(o *outcome.Outcome, f Filter, width int, plain bool) (string, error) {
	md, err := r.Markdown(o, f)
	if err != nil {
		return "", err
	}
	return Style(md, width, plain)
}

// Style renders markdown text for the terminal
func Style(md string, width int, plain bool) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	tr, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", failure.Wrap(err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", renderError("Error rendering template", err)
	}
	return out, nil
}

func renderError(prefix string, err error) error {
	return failure.New(ErrRender,
		failure.Message(prefix+": "+err.Error()),
	)
}

// ErrorText is shown in place of the detail view when rendering fails
func ErrorText(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return "Error rendering template: " + err.Error()
}
