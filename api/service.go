package api

import (
	"context"
	"time"

	"github.com/ka2n/fhirval/api/batch"
	"github.com/ka2n/fhirval/api/cache"
	"github.com/ka2n/fhirval/api/catalog"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/ka2n/fhirval/api/render"
	"github.com/ka2n/fhirval/api/result"
	"github.com/ka2n/fhirval/api/validation"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
)

type ErrorCode string

const (
	// ErrNoResult is returned when a single document produced no row
	ErrNoResult ErrorCode = "NoResult"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Options configures a Service
type Options struct {
	Server      string
	Root        string
	Profile     string
	Timeout     time.Duration
	Concurrency int
	Template    string
	CacheTTL    time.Duration
}

// Service wires the validation client, profile catalog and renderer
// for one server.
type Service struct {
	Client   *validation.Client
	Catalog  *catalog.Catalog
	Renderer *render.Renderer
	opts     Options
}

// NewService creates a service from opts
func NewService(opts Options) (*Service, error) {
	client, err := validation.NewClient(opts.Server, opts.Root, log.NewHTTPClient(opts.Timeout))
	if err != nil {
		return nil, err
	}

	tmpl, err := render.LoadTemplate(opts.Template)
	if err != nil {
		return nil, err
	}

	profiles := cache.New[[]catalog.Profile]("profiles")
	if opts.CacheTTL > 0 {
		profiles.SetTTL(opts.CacheTTL)
	}

	return &Service{
		Client:   client,
		Catalog:  catalog.New(client).WithCache(profiles),
		Renderer: render.New(tmpl),
		opts:     opts,
	}, nil
}

// Profile returns the explicitly selected profile
func (s *Service) Profile() string {
	return s.opts.Profile
}

// WithProfile returns a copy of s that validates against profile
func (s *Service) WithProfile(profile string) *Service {
	c := *s
	c.opts.Profile = profile
	return &c
}

// NewSink returns an empty sink whose detail calls go to this server
func (s *Service) NewSink() *result.Sink {
	return result.NewSink(s.Client)
}

// NewIngestor returns an ingestor that appends to sink
func (s *Service) NewIngestor(sink *result.Sink, onEvent func(batch.Event)) *batch.Ingestor {
	return &batch.Ingestor{
		Validator:   s.Client,
		Sink:        sink,
		Profile:     s.opts.Profile,
		Concurrency: s.opts.Concurrency,
		OnEvent:     onEvent,
	}
}

// ValidateOne runs a single file through the batch pipeline and returns its
// row, or the error that stopped it.
func (s *Service) ValidateOne(ctx context.Context, f batch.InputFile) (result.Row, error) {
	sink := s.NewSink()

	var failed error
	in := s.NewIngestor(sink, func(e batch.Event) {
		if e.Err != nil {
			failed = e.Err
		}
	})
	in.Run(ctx, []batch.InputFile{f})

	if failed != nil {
		return result.Row{}, failed
	}
	rows := sink.Rows()
	if len(rows) == 0 {
		return result.Row{}, failure.New(ErrNoResult,
			failure.Message("No result for file"),
			failure.Context{"file": f.Name()},
		)
	}
	return rows[0], nil
}

// Detail validates the row again and renders the full outcome for the
// terminal. A render failure is returned as text in place of the view.
func (s *Service) Detail(ctx context.Context, sink *result.Sink, row result.Row, f render.Filter, width int, plain bool) (string, *outcome.Outcome, error) {
	o, err := sink.Detail(ctx, row)
	if err != nil {
		return "", nil, err
	}
	out, err := s.Renderer.Terminal(o, f, width, plain)
	if err != nil {
		log.Error("failed to render outcome", "file", row.FileName, "error", err)
		return render.ErrorText(err), o, nil
	}
	return out, o, nil
}
