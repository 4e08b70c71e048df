package cli

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/ka2n/fhirval/api/catalog"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/ka2n/fhirval/api/render"
	"github.com/ka2n/fhirval/api/result"
)

var testRows = []result.Row{
	{Index: 0, FileName: "a.json", ResourceID: "p1", ResourceName: "Alice", ResourceType: "Patient", Tally: outcome.Tally{Errors: 2, Warnings: 1}},
	{Index: 1, FileName: "b.json", ResourceID: "Unknown", ResourceName: "Unknown", ResourceType: "Observation", Tally: outcome.Tally{Info: 3}},
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, testRows, true)
	out := buf.String()

	for _, want := range []string{"FILE", "a.json", "Alice", "Observation", "2 resources", "error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain output contains escape codes:\n%s", out)
	}
}

func TestWriteResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, nil, true)
	if !strings.Contains(buf.String(), "0 resources") || !strings.Contains(buf.String(), "valid") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestSummaryStatus(t *testing.T) {
	tests := []struct {
		tally outcome.Tally
		want  string
	}{
		{tally: outcome.Tally{}, want: "valid"},
		{tally: outcome.Tally{Info: 4}, want: "valid"},
		{tally: outcome.Tally{Warnings: 1, Info: 1}, want: "warning"},
		{tally: outcome.Tally{Errors: 1, Warnings: 1}, want: "error"},
	}
	for _, tt := range tests {
		if got := summaryStatus(tt.tally, true); got != tt.want {
			t.Errorf("summaryStatus(%v) = %q, want %q", tt.tally, got, tt.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	got := formatLine(testRows[0])
	want := "1\ta.json\tp1\tAlice\tPatient\t2 errors, 1 warnings, 0 info"
	if got != want {
		t.Errorf("formatLine() = %q, want %q", got, want)
	}
}

func TestWriteProfiles(t *testing.T) {
	var buf bytes.Buffer
	writeProfiles(&buf, nil, true)
	if got := buf.String(); got != "No profiles available\n" {
		t.Errorf("writeProfiles(nil) = %q", got)
	}

	buf.Reset()
	writeProfiles(&buf, []catalog.Profile{{URL: "http://example.org/P1", Name: "P1"}, {URL: "http://example.org/P2"}}, true)
	for _, want := range []string{"P1", "http://example.org/P2"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestViewerURL(t *testing.T) {
	validateURL := "http://localhost:8080/fhir/Patient/$validate?profile=http%3A%2F%2Fexample.org%2FP1"
	got, err := viewerURL("http://localhost:8080/visualiser/index.html", validateURL)
	if err != nil {
		t.Fatalf("viewerURL() error = %v", err)
	}

	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/visualiser/index.html" {
		t.Errorf("path = %s", u.Path)
	}
	if q := u.Query().Get("url"); q != validateURL {
		t.Errorf("url param = %q, want %q", q, validateURL)
	}
}

func TestDetailTitle(t *testing.T) {
	if got := detailTitle(testRows[0], render.FilterAll); got != "a.json  Patient/p1" {
		t.Errorf("detailTitle() = %q", got)
	}
	if got := detailTitle(testRows[0], render.FilterWarning); !strings.HasSuffix(got, "[warning]") {
		t.Errorf("detailTitle() = %q", got)
	}
}
