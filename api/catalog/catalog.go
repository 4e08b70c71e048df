// Package catalog lists the StructureDefinitions a FHIR server offers as
// validation profiles.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ka2n/fhirval/api/cache"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

type ErrorCode string

const (
	// ErrCatalog is returned when the profile list cannot be fetched
	ErrCatalog ErrorCode = "CatalogError"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Profile is one selectable profile
type Profile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Label returns the name, or the URL for unnamed profiles
func (p Profile) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.URL
}

type entry struct {
	Resource Profile `json:"resource"`
}

type bundle struct {
	Entry []entry `json:"entry"`
}

// Endpoint builds URLs below the FHIR root; *validation.Client satisfies it
type Endpoint interface {
	Endpoint(path ...string) *url.URL
	HTTPClient() *http.Client
}

// Catalog fetches profiles from a server
type Catalog struct {
	endpoint Endpoint
	cache    *cache.Cache[[]Profile]
}

// New returns a catalog without caching
func New(endpoint Endpoint) *Catalog {
	return &Catalog{endpoint: endpoint}
}

// WithCache returns a copy of the catalog that keeps results in c
func (cat *Catalog) WithCache(c *cache.Cache[[]Profile]) *Catalog {
	return &Catalog{endpoint: cat.endpoint, cache: c}
}

// URL returns the StructureDefinition search URL
func (cat *Catalog) URL() string {
	u := cat.endpoint.Endpoint("StructureDefinition")
	u.RawQuery = url.Values{"_format": []string{"json"}}.Encode()
	return u.String()
}

// Fetch returns the available profiles. An empty result is not an error.
// refresh skips the cache.
func (cat *Catalog) Fetch(ctx context.Context, refresh bool) ([]Profile, error) {
	if cat.cache == nil {
		return cat.fetch(ctx)
	}
	return cat.cache.GetOrSet(cat.URL(), func() ([]Profile, error) {
		return cat.fetch(ctx)
	}, refresh)
}

func (cat *Catalog) fetch(ctx context.Context) ([]Profile, error) {
	u := cat.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, failure.New(ErrCatalog,
			failure.Message("Failed to fetch profiles"),
			failure.Context{"url": u, "error": err.Error()},
		)
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := cat.endpoint.HTTPClient().Do(req)
	if err != nil {
		return nil, failure.New(ErrCatalog,
			failure.Message("Failed to fetch profiles"),
			failure.Context{"url": u, "error": err.Error()},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure.New(ErrCatalog,
			failure.Message("Failed to fetch profiles"),
			failure.Context{"url": u, "status": resp.Status},
		)
	}

	var b bundle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, failure.New(ErrCatalog,
			failure.Message("Profile list is not a JSON bundle"),
			failure.Context{"url": u, "error": err.Error()},
		)
	}

	profiles := lo.FilterMap(b.Entry, func(e entry, _ int) (Profile, bool) {
		return e.Resource, e.Resource.URL != ""
	})
	log.Debug("fetched profiles", "url", u, "count", len(profiles))
	return profiles, nil
}

// Fallback runs Fetch and logs a failure instead of returning it, so a
// broken catalog never blocks validation.
func (cat *Catalog) Fallback(ctx context.Context, refresh bool) []Profile {
	profiles, err := cat.Fetch(ctx, refresh)
	if err != nil {
		log.Warn("profile catalog unavailable", "error", err)
		return nil
	}
	return profiles
}
