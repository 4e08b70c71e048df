package validation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/morikuni/failure/v2"
)

func TestResolveProfile(t *testing.T) {
	declared := &Document{ResourceType: "Patient", Profiles: []string{"P1", "P9"}}
	bare := &Document{ResourceType: "Patient"}

	tests := []struct {
		name     string
		selected string
		doc      *Document
		want     string
	}{
		{name: "declared profile without selection", selected: "", doc: declared, want: "P1"},
		{name: "selection wins over declared profile", selected: "P2", doc: declared, want: "P2"},
		{name: "placeholder is ignored", selected: Placeholder, doc: declared, want: "P1"},
		{name: "nothing declared or selected", selected: "", doc: bare, want: ""},
		{name: "placeholder and nothing declared", selected: Placeholder, doc: bare, want: ""},
		{name: "selection without declared profile", selected: "P2", doc: bare, want: "P2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveProfile(tt.selected, tt.doc); got != tt.want {
				t.Errorf("ResolveProfile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientURL(t *testing.T) {
	c, err := NewClient("https://fhir.example.org/", DefaultRoot, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "no profile",
			req:  Request{ResourceType: "Patient"},
			want: "https://fhir.example.org/fhir/Patient/$validate",
		},
		{
			name: "profile is query encoded",
			req:  Request{ResourceType: "Observation", ProfileURL: "http://hl7.org/fhir/StructureDefinition/vitalsigns"},
			want: "https://fhir.example.org/fhir/Observation/$validate?profile=http%3A%2F%2Fhl7.org%2Ffhir%2FStructureDefinition%2Fvitalsigns",
		},
		{
			name: "unknown resource type",
			req:  Request{ResourceType: Unknown},
			want: "https://fhir.example.org/fhir/Unknown/$validate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.URL(tt.req); got != tt.want {
				t.Errorf("URL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRequest_ProfileInURL(t *testing.T) {
	c, err := NewClient("http://localhost:8080", "/fhir/", nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	body := []byte(`{"resourceType":"Patient","meta":{"profile":["http://example.org/P1"]}}`)
	doc, err := ParseDocument(body)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	for _, tt := range []struct {
		selected string
		want     string
	}{
		{selected: "", want: "http://example.org/P1"},
		{selected: "http://example.org/P2", want: "http://example.org/P2"},
	} {
		u, err := url.Parse(c.URL(NewRequest(doc, body, tt.selected)))
		if err != nil {
			t.Fatalf("url.Parse() error = %v", err)
		}
		if got := u.Query().Get("profile"); got != tt.want {
			t.Errorf("selected %q: profile = %q, want %q", tt.selected, got, tt.want)
		}
		if u.Path != "/fhir/Patient/$validate" {
			t.Errorf("path = %q", u.Path)
		}
	}
}

func TestNewClient_Invalid(t *testing.T) {
	for _, server := range []string{"", "localhost", "://bad"} {
		_, err := NewClient(server, DefaultRoot, nil)
		if !failure.Is(err, ErrInvalidEndpoint) {
			t.Errorf("NewClient(%q) error = %v, want %v", server, err, ErrInvalidEndpoint)
		}
	}
}

func TestClientValidate(t *testing.T) {
	var gotBody, gotContentType, gotAccept, gotProfile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotProfile = r.URL.Query().Get("profile")

		w.Header().Set("Content-Type", MediaType)
		// HAPI answers invalid resources with 412 and an outcome
		w.WriteHeader(http.StatusPreconditionFailed)
		io.WriteString(w, `{"resourceType":"OperationOutcome","issue":[{"severity":"error","diagnostics":"bad"},{"severity":"warning"}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, DefaultRoot, srv.Client())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	text := `{"resourceType":"Patient","id":"1"}`
	o, validateURL, err := c.Validate(context.Background(), Request{
		ResourceType: "Patient",
		ProfileURL:   "http://example.org/P",
		Body:         []byte(text),
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if gotBody != text {
		t.Errorf("body = %q, want %q", gotBody, text)
	}
	if gotContentType != MediaType || gotAccept != MediaType {
		t.Errorf("headers = %q / %q, want %q", gotContentType, gotAccept, MediaType)
	}
	if gotProfile != "http://example.org/P" {
		t.Errorf("profile = %q", gotProfile)
	}
	if !strings.HasPrefix(validateURL, srv.URL+"/fhir/Patient/$validate?") {
		t.Errorf("validateURL = %q", validateURL)
	}
	if diff := cmp.Diff(outcome.Tally{Errors: 1, Warnings: 1}, outcome.Count(o)); diff != "" {
		t.Errorf("tally mismatch (-want +got):\n%s", diff)
	}

	// repeating the call with the stored URL gives the same outcome
	again, err := c.ValidateURL(context.Background(), validateURL, []byte(text))
	if err != nil {
		t.Fatalf("ValidateURL() error = %v", err)
	}
	if diff := cmp.Diff(o.Issue, again.Issue); diff != "" {
		t.Errorf("repeated outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestClientValidate_TransportError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non JSON body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, "<html>Bad Gateway</html>")
			},
		},
		{
			name: "connection dropped",
			handler: func(w http.ResponseWriter, r *http.Request) {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Fatal("hijacking not supported")
				}
				conn, _, _ := hj.Hijack()
				conn.Close()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c, err := NewClient(srv.URL, DefaultRoot, srv.Client())
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			_, _, err = c.Validate(context.Background(), Request{ResourceType: "Patient", Body: []byte(`{}`)})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !failure.Is(err, ErrTransport) {
				t.Errorf("Expected error %v, got %v", ErrTransport, err)
			}
		})
	}
}
