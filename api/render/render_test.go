package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/morikuni/failure/v2"
)

const sampleOutcome = `{
	"resourceType": "OperationOutcome",
	"issue": [
		{"severity": "error", "code": "required", "diagnostics": "Patient.gender: minimum required = 1", "expression": ["Patient.gender"]},
		{"severity": "warning", "code": "invariant", "details": {"text": "dom-6: narrative recommended"}, "location": ["Patient"]},
		{"severity": "information", "code": "informational", "diagnostics": "Validated against base"}
	]
}`

func mustParse(t *testing.T, body string) *outcome.Outcome {
	t.Helper()
	o, err := outcome.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return o
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{in: "", want: FilterAll},
		{in: "all", want: FilterAll},
		{in: "Error", want: FilterError},
		{in: "warnings", want: FilterWarning},
		{in: "information", want: FilterInfo},
		{in: "info", want: FilterInfo},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if err != nil {
			t.Errorf("ParseFilter(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFilter("fatal"); !failure.Is(err, ErrInvalidFilter) {
		t.Errorf("ParseFilter(fatal) error = %v, want %v", err, ErrInvalidFilter)
	}
}

func TestBindings_Filter(t *testing.T) {
	o := mustParse(t, sampleOutcome)

	tests := []struct {
		filter Filter
		want   []string
	}{
		{filter: FilterAll, want: []string{"error", "warning", "information"}},
		{filter: FilterError, want: []string{"error"}},
		{filter: FilterWarning, want: []string{"warning"}},
		{filter: FilterInfo, want: []string{"information"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			data, err := Bindings(o, tt.filter)
			if err != nil {
				t.Fatalf("Bindings() error = %v", err)
			}
			var got []string
			for _, issue := range data["issue"].([]any) {
				got = append(got, issue.(map[string]any)["severity"].(string))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("severities mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// filtering works on a copy
	if got := outcome.Count(o); got.Total() != 3 {
		t.Errorf("outcome was modified: %v", got)
	}
}

func TestHTML(t *testing.T) {
	r := New("")
	o := mustParse(t, sampleOutcome)

	html, err := r.HTML(o, FilterAll)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{
		"Patient.gender: minimum required = 1",
		"dom-6: narrative recommended",
		"Validated against base",
		"<table>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML() missing %q in:\n%s", want, html)
		}
	}

	html, err = r.HTML(o, FilterWarning)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if strings.Contains(html, "minimum required") || !strings.Contains(html, "dom-6") {
		t.Errorf("warning filter not applied:\n%s", html)
	}
}

func TestHTML_NoIssues(t *testing.T) {
	html, err := New("").HTML(mustParse(t, `{"resourceType":"OperationOutcome"}`), FilterAll)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(html, "No issues.") {
		t.Errorf("HTML() = %s", html)
	}
}

func TestHTML_CustomTemplate(t *testing.T) {
	r := New(`{% for i in issue %}[{{ i.severity }}]{% endfor %}`)
	got, err := r.HTML(mustParse(t, sampleOutcome), FilterAll)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if got != "[error][warning][information]" {
		t.Errorf("HTML() = %q", got)
	}
}

func TestHTML_RenderError(t *testing.T) {
	r := New(`{% for i in issue %}never closed`)
	_, err := r.HTML(mustParse(t, sampleOutcome), FilterAll)
	if !failure.Is(err, ErrRender) {
		t.Fatalf("HTML() error = %v, want %v", err, ErrRender)
	}
	if text := ErrorText(err); !strings.HasPrefix(text, "Error rendering template: ") {
		t.Errorf("ErrorText() = %q", text)
	}
}

func TestMarkdown(t *testing.T) {
	md, err := New("").Markdown(mustParse(t, sampleOutcome), FilterError)
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(md, "Patient.gender") {
		t.Errorf("Markdown() = %s", md)
	}
	if strings.Contains(md, "<td>") {
		t.Errorf("Markdown() still contains markup: %s", md)
	}
}

func TestTerminal_Plain(t *testing.T) {
	out, err := New("").Terminal(mustParse(t, sampleOutcome), FilterAll, 120, true)
	if err != nil {
		t.Fatalf("Terminal() error = %v", err)
	}
	if !strings.Contains(out, "Validated") {
		t.Errorf("Terminal() = %s", out)
	}
}

func TestLoadTemplate(t *testing.T) {
	got, err := LoadTemplate("")
	if err != nil || got != DefaultTemplate {
		t.Errorf("LoadTemplate(\"\") = %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "custom.liquid")
	if err := os.WriteFile(path, []byte("{{ resourceType }}"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadTemplate(path)
	if err != nil || got != "{{ resourceType }}" {
		t.Errorf("LoadTemplate() = %q, %v", got, err)
	}

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.liquid"))
	if !failure.Is(err, ErrRender) {
		t.Errorf("LoadTemplate() error = %v, want %v", err, ErrRender)
	}
	if !strings.HasPrefix(ErrorText(err), "Error loading template: ") {
		t.Errorf("ErrorText() = %q", ErrorText(err))
	}
}
