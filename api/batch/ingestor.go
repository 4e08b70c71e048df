// Package batch validates a set of files, one independent pipeline per file.
package batch

import (
	"context"
	"io"
	"sync"

	"github.com/ka2n/fhirval/api/outcome"
	"github.com/ka2n/fhirval/api/result"
	"github.com/ka2n/fhirval/api/validation"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
	"golang.org/x/sync/errgroup"
)

type ErrorCode string

const (
	// ErrRead is returned when a file cannot be read
	ErrRead ErrorCode = "ReadError"

	// ErrInvalidInput is returned for arguments that name no file
	ErrInvalidInput ErrorCode = "InvalidInput"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Validator runs one validation request; *validation.Client satisfies it
type Validator interface {
	Validate(ctx context.Context, req validation.Request) (*outcome.Outcome, string, error)
}

// Ingestor drives the read → parse → validate → tally → append pipeline
type Ingestor struct {
	Validator Validator
	Sink      *result.Sink

	// Profile is the explicitly selected profile; empty or the placeholder
	// leaves the choice to each document.
	Profile string

	// Concurrency caps the pipelines in flight; zero or less means no limit.
	Concurrency int

	// OnEvent receives every state change. Calls are serialised.
	OnEvent func(Event)

	mu      sync.Mutex
	summary Summary
}

// Run processes files and returns once every pipeline has reached a
// terminal state. A failing file never stops the others; its error is
// logged and reported through OnEvent.
func (in *Ingestor) Run(ctx context.Context, files []InputFile) Summary {
	in.mu.Lock()
	in.summary = Summary{Files: len(files)}
	in.mu.Unlock()

	if len(files) == 0 {
		return Summary{}
	}

	var g errgroup.Group
	if in.Concurrency > 0 {
		g.SetLimit(in.Concurrency)
	}
	for _, f := range files {
		g.Go(func() error {
			in.process(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	in.mu.Lock()
	defer in.mu.Unlock()
	log.Debug("batch finished",
		"files", in.summary.Files,
		"appended", in.summary.Appended,
		"failed", in.summary.Failed(),
	)
	return in.summary
}

func (in *Ingestor) process(ctx context.Context, f InputFile) {
	name := f.Name()
	in.emit(Event{File: name, State: StateReading})

	text, err := readAll(f)
	if err != nil {
		log.Warn("failed to read file", "file", name, "error", err)
		in.emit(Event{File: name, State: StateReadFailed, Err: err})
		return
	}

	doc, err := validation.ParseDocument(text)
	if err != nil {
		log.Warn("invalid JSON", "file", name, "error", err)
		in.emit(Event{File: name, State: StateParseFailed, Err: err})
		return
	}
	in.emit(Event{File: name, State: StateParsed})

	in.emit(Event{File: name, State: StateValidating})
	req := validation.NewRequest(doc, text, in.Profile)
	o, validateURL, err := in.Validator.Validate(ctx, req)
	if err != nil {
		log.Warn("validation failed", "file", name, "url", validateURL, "error", err)
		in.emit(Event{File: name, State: StateValidationFailed, Err: err})
		return
	}
	in.emit(Event{File: name, State: StateValidated})

	row := in.Sink.Append(result.Row{
		FileName:     name,
		ResourceID:   doc.DisplayID(),
		ResourceName: doc.DisplayName(),
		ResourceType: doc.Type(),
		SourceText:   string(text),
		ValidateURL:  validateURL,
		Tally:        outcome.Count(o),
	})
	in.emit(Event{File: name, State: StateRowAppended, Row: &row})
}

func (in *Ingestor) emit(e Event) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.summary.record(e.State)
	if in.OnEvent != nil {
		in.OnEvent(e)
	}
}

func readAll(f InputFile) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, failure.New(ErrRead,
			failure.Message("Failed to open file"),
			failure.Context{"file": f.Name(), "error": err.Error()},
		)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, failure.New(ErrRead,
			failure.Message("Failed to read file"),
			failure.Context{"file": f.Name(), "error": err.Error()},
		)
	}
	return data, nil
}
