package validation

// Placeholder is the label of the empty profile choice. Selecting it is the
// same as selecting nothing.
const Placeholder = "Select a Profile"

// Request is a single $validate call
type Request struct {
	ResourceType string
	// ProfileURL is empty when the server default applies
	ProfileURL string
	Body       []byte
}

// NewRequest derives a request from a parsed document and its raw text
func NewRequest(doc *Document, body []byte, selected string) Request {
	return Request{
		ResourceType: doc.Type(),
		ProfileURL:   ResolveProfile(selected, doc),
		Body:         body,
	}
}

// ResolveProfile picks the profile to validate against:
// an explicit selection first, then the document's first declared profile,
// otherwise none.
func ResolveProfile(selected string, doc *Document) string {
	if IsSelected(selected) {
		return selected
	}
	if doc != nil {
		return doc.DeclaredProfile()
	}
	return ""
}

// IsSelected reports whether s is a real profile choice
func IsSelected(s string) bool {
	return s != "" && s != Placeholder
}
