// Package outcome models the OperationOutcome returned by a FHIR $validate
// call and tallies its issues by severity.
package outcome

import (
	"bytes"
	"encoding/json"

	"github.com/morikuni/failure/v2"
)

type ErrorCode string

const (
	// ErrDecode is returned when a response body is not a JSON outcome
	ErrDecode ErrorCode = "OutcomeDecodeError"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Severity is the severity of a single issue
type Severity string

const (
	SeverityFatal       Severity = "fatal"
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
)

// Coding is a single code from a terminology system
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept carries coded details and free text
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Issue is one entry of Outcome.Issue.
// Only the fields the CLI displays are decoded; the rest stays in Outcome.Raw.
type Issue struct {
	Severity    Severity         `json:"severity,omitempty"`
	Code        string           `json:"code,omitempty"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Location    []string         `json:"location,omitempty"`
	Expression  []string         `json:"expression,omitempty"`
}

// Message returns the most descriptive text available for the issue
func (i Issue) Message() string {
	if i.Diagnostics != "" {
		return i.Diagnostics
	}
	if i.Details != nil {
		if i.Details.Text != "" {
			return i.Details.Text
		}
		for _, c := range i.Details.Coding {
			if c.Display != "" {
				return c.Display
			}
		}
	}
	return ""
}

// Path returns the first expression, or the first location when there is none
func (i Issue) Path() string {
	if len(i.Expression) > 0 {
		return i.Expression[0]
	}
	if len(i.Location) > 0 {
		return i.Location[0]
	}
	return ""
}

// Outcome is a decoded validation response
type Outcome struct {
	ResourceType string  `json:"resourceType,omitempty"`
	Issue        []Issue `json:"issue,omitempty"`

	raw json.RawMessage
}

// Parse decodes a response body. The body is kept verbatim so fields that
// Issue does not model survive into Snapshot.
func Parse(body []byte) (*Outcome, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, failure.New(ErrDecode,
			failure.Message("Validation response is not valid JSON"),
			failure.Context{
				"body": abbreviate(trimmed, 120),
			},
		)
	}

	var o Outcome
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return nil, failure.New(ErrDecode,
			failure.Message("Validation response is not an outcome object"),
			failure.Context{
				"error": err.Error(),
			},
		)
	}
	o.raw = append(json.RawMessage(nil), trimmed...)
	return &o, nil
}

// Raw returns the body the outcome was parsed from.
// Outcomes built in code are marshalled on demand.
func (o *Outcome) Raw() (json.RawMessage, error) {
	if len(o.raw) > 0 {
		return o.raw, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, failure.Wrap(err)
	}
	return b, nil
}

// Snapshot returns a deep copy of the outcome as plain maps and slices,
// suitable for handing to a template engine.
func (o *Outcome) Snapshot() (map[string]any, error) {
	raw, err := o.Raw()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, failure.Wrap(err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func abbreviate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
