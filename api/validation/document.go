package validation

import (
	"encoding/json"
	"strconv"

	"github.com/morikuni/failure/v2"
)

// Unknown is displayed for identifying fields a document does not carry
const Unknown = "Unknown"

// Document holds the fields of a FHIR resource the validator cares about
type Document struct {
	ID           string
	Name         string
	ResourceType string
	// Profiles is meta.profile in declaration order
	Profiles []string
}

// ParseDocument parses raw resource text.
// Any syntactically valid JSON is accepted; a value that is not an object
// yields a Document with every field empty.
func ParseDocument(text []byte) (*Document, error) {
	var v any
	if err := json.Unmarshal(text, &v); err != nil {
		return nil, failure.New(ErrParse,
			failure.Message("Invalid JSON"),
			failure.Context{
				"error": err.Error(),
			},
		)
	}

	doc := &Document{}
	obj, ok := v.(map[string]any)
	if !ok {
		return doc, nil
	}

	doc.ID = scalar(obj["id"])
	doc.Name = scalar(obj["name"])
	doc.ResourceType = scalar(obj["resourceType"])

	if meta, ok := obj["meta"].(map[string]any); ok {
		if profiles, ok := meta["profile"].([]any); ok {
			for _, p := range profiles {
				if s, ok := p.(string); ok {
					doc.Profiles = append(doc.Profiles, s)
				}
			}
		}
	}

	return doc, nil
}

// DisplayID returns the id or Unknown
func (d *Document) DisplayID() string {
	return orUnknown(d.ID)
}

// DisplayName returns the name or Unknown
func (d *Document) DisplayName() string {
	return orUnknown(d.Name)
}

// Type returns the resourceType or Unknown
func (d *Document) Type() string {
	return orUnknown(d.ResourceType)
}

// DeclaredProfile returns the first entry of meta.profile, or ""
func (d *Document) DeclaredProfile() string {
	if len(d.Profiles) == 0 {
		return ""
	}
	return d.Profiles[0]
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// scalar renders strings, numbers and booleans for display.
// Zero, false, objects, arrays and null display as empty. HumanName arrays in "name"
// therefore fall back to Unknown.
func scalar(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
