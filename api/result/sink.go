// Package result collects one row per validated document.
package result

import (
	"context"
	"sync"

	"github.com/ka2n/fhirval/api/outcome"
)

// Row is the summary of one validated document. Rows are never modified
// after they are appended.
type Row struct {
	// Index is the position in the sink, assigned on append
	Index        int           `json:"index"`
	FileName     string        `json:"file"`
	ResourceID   string        `json:"resourceId"`
	ResourceName string        `json:"resourceName"`
	ResourceType string        `json:"resourceType"`
	SourceText   string        `json:"-"`
	ValidateURL  string        `json:"validateUrl"`
	Tally        outcome.Tally `json:"tally"`
}

// Validator repeats a validation call from a stored URL and body
type Validator interface {
	ValidateURL(ctx context.Context, validateURL string, body []byte) (*outcome.Outcome, error)
}

type subscriber struct {
	fn func(Row)
}

// Sink is an append-only sequence of rows with change notification.
// It is safe for concurrent use.
type Sink struct {
	validator Validator

	mu   sync.Mutex
	rows []Row
	subs []*subscriber
}

// NewSink returns an empty sink; v serves Detail
func NewSink(v Validator) *Sink {
	return &Sink{validator: v}
}

// Append stores r at the end of the sequence and notifies subscribers.
// Subscribers run while the sink is locked so they observe rows in order;
// they must not call back into the sink.
func (s *Sink) Append(r Row) Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Index = len(s.rows)
	s.rows = append(s.rows, r)
	for _, sub := range s.subs {
		sub.fn(r)
	}
	return r
}

// Subscribe registers fn for every row appended from now on.
// The returned function removes the registration.
func (s *Sink) Subscribe(fn func(Row)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, x := range s.subs {
			if x == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Rows returns a copy of the rows appended so far
func (s *Sink) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}

// Len returns the number of rows
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Detail validates the row's source again and returns the full outcome.
// Outcomes are not kept by the sink; only counts and source text are.
func (s *Sink) Detail(ctx context.Context, r Row) (*outcome.Outcome, error) {
	return s.validator.ValidateURL(ctx, r.ValidateURL, []byte(r.SourceText))
}
