package batch

import "github.com/ka2n/fhirval/api/result"

// State is a step in a single file's pipeline
type State int

const (
	StateReading State = iota
	StateReadFailed
	StateParsed
	StateParseFailed
	StateValidating
	StateValidated
	StateValidationFailed
	StateRowAppended
)

var stateNames = map[State]string{
	StateReading:          "reading",
	StateReadFailed:       "read-failed",
	StateParsed:           "parsed",
	StateParseFailed:      "parse-failed",
	StateValidating:       "validating",
	StateValidated:        "validated",
	StateValidationFailed: "validation-failed",
	StateRowAppended:      "row-appended",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the pipeline stops in s
func (s State) Terminal() bool {
	switch s {
	case StateReadFailed, StateParseFailed, StateValidationFailed, StateRowAppended:
		return true
	default:
		return false
	}
}

// next lists the allowed transitions
var next = map[State][]State{
	StateReading:    {StateParsed, StateParseFailed, StateReadFailed},
	StateParsed:     {StateValidating},
	StateValidating: {StateValidated, StateValidationFailed},
	StateValidated:  {StateRowAppended},
}

// CanTransition reports whether a pipeline may move from s to to
func (s State) CanTransition(to State) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}

// Event reports a state change of one file
type Event struct {
	File  string
	State State
	// Err is set for the failed states
	Err error
	// Row is set for StateRowAppended
	Row *result.Row
}

// Summary counts the terminal state of every file in a batch
type Summary struct {
	Files            int `json:"files"`
	Appended         int `json:"appended"`
	ReadFailed       int `json:"readFailed"`
	ParseFailed      int `json:"parseFailed"`
	ValidationFailed int `json:"validationFailed"`
}

// Failed returns the number of files that produced no row
func (s Summary) Failed() int {
	return s.ReadFailed + s.ParseFailed + s.ValidationFailed
}

func (s *Summary) record(state State) {
	switch state {
	case StateRowAppended:
		s.Appended++
	case StateReadFailed:
		s.ReadFailed++
	case StateParseFailed:
		s.ParseFailed++
	case StateValidationFailed:
		s.ValidationFailed++
	}
}
