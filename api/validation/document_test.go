package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/morikuni/failure/v2"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     *Document
		wantID   string
		wantName string
		wantType string
	}{
		{
			name:     "minimal patient",
			text:     `{"id":"1","resourceType":"Patient"}`,
			want:     &Document{ID: "1", ResourceType: "Patient"},
			wantID:   "1",
			wantName: Unknown,
			wantType: "Patient",
		},
		{
			name: "structure definition with profiles",
			text: `{"resourceType":"StructureDefinition","id":"sd","name":"MyProfile",
				"meta":{"profile":["http://example.org/A","http://example.org/B"]}}`,
			want: &Document{
				ID:           "sd",
				Name:         "MyProfile",
				ResourceType: "StructureDefinition",
				Profiles:     []string{"http://example.org/A", "http://example.org/B"},
			},
			wantID:   "sd",
			wantName: "MyProfile",
			wantType: "StructureDefinition",
		},
		{
			name:     "human name array is not a display name",
			text:     `{"resourceType":"Patient","name":[{"family":"Chalmers"}]}`,
			want:     &Document{ResourceType: "Patient"},
			wantID:   Unknown,
			wantName: Unknown,
			wantType: "Patient",
		},
		{
			name:     "numeric id",
			text:     `{"id":42}`,
			want:     &Document{ID: "42"},
			wantID:   "42",
			wantName: Unknown,
			wantType: Unknown,
		},
		{
			name:     "valid JSON that is not an object",
			text:     `"just a string"`,
			want:     &Document{},
			wantID:   Unknown,
			wantName: Unknown,
			wantType: Unknown,
		},
		{
			name:     "empty meta profile",
			text:     `{"resourceType":"Patient","meta":{"profile":[]}}`,
			want:     &Document{ResourceType: "Patient"},
			wantID:   Unknown,
			wantName: Unknown,
			wantType: "Patient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocument([]byte(tt.text))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDocument() mismatch (-want +got):\n%s", diff)
			}
			if got.DisplayID() != tt.wantID || got.DisplayName() != tt.wantName || got.Type() != tt.wantType {
				t.Errorf("display = (%q, %q, %q), want (%q, %q, %q)",
					got.DisplayID(), got.DisplayName(), got.Type(), tt.wantID, tt.wantName, tt.wantType)
			}
		})
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	for _, text := range []string{"not json", "", `{"id":`} {
		_, err := ParseDocument([]byte(text))
		if !failure.Is(err, ErrParse) {
			t.Errorf("ParseDocument(%q) error = %v, want %v", text, err, ErrParse)
		}
	}
}
