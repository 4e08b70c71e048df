// Package validation talks to a FHIR server's $validate operation.
package validation

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ka2n/fhirval/api/outcome"
	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
)

type ErrorCode string

const (
	// ErrParse is returned when resource text is not valid JSON
	ErrParse ErrorCode = "ParseError"

	// ErrTransport is returned when the request fails or the body is not an outcome
	ErrTransport ErrorCode = "TransportError"

	// ErrInvalidEndpoint is returned for an unusable server URL
	ErrInvalidEndpoint ErrorCode = "InvalidEndpoint"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// MediaType is sent as both Content-Type and Accept
const MediaType = "application/fhir+json"

// DefaultRoot is the path segment the FHIR API is mounted under
const DefaultRoot = "fhir"

// Client issues $validate requests against one server
type Client struct {
	base       *url.URL
	root       string
	httpClient *http.Client
}

// NewClient creates a client for server (scheme and host, optionally a path
// prefix) with the FHIR API mounted under root.
// A nil httpClient uses a client with the logging transport.
func NewClient(server, root string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, failure.New(ErrInvalidEndpoint,
			failure.Message("Invalid server URL"),
			failure.Context{
				"server": server,
				"error":  err.Error(),
			},
		)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, failure.New(ErrInvalidEndpoint,
			failure.Message("Server URL must include scheme and host"),
			failure.Context{
				"server": server,
			},
		)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if httpClient == nil {
		httpClient = log.NewHTTPClient(0)
	}
	return &Client{
		base:       u,
		root:       strings.Trim(root, "/"),
		httpClient: httpClient,
	}, nil
}

// Endpoint returns the URL of path below the FHIR root
func (c *Client) Endpoint(path ...string) *url.URL {
	segments := path
	if c.root != "" {
		segments = append([]string{c.root}, path...)
	}
	return c.base.JoinPath(segments...)
}

// HTTPClient returns the underlying HTTP client
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL builds <server>/<root>/<resourceType>/$validate[?profile=...]
func (c *Client) URL(req Request) string {
	u := c.Endpoint(req.ResourceType, "$validate")
	if req.ProfileURL != "" {
		q := url.Values{}
		q.Set("profile", req.ProfileURL)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Validate posts the request body and returns the outcome together with the
// URL it was posted to, so the call can be repeated with ValidateURL.
func (c *Client) Validate(ctx context.Context, req Request) (*outcome.Outcome, string, error) {
	validateURL := c.URL(req)
	o, err := c.ValidateURL(ctx, validateURL, req.Body)
	return o, validateURL, err
}

// ValidateURL posts body to a previously built validate URL.
// The response is decoded whatever its status: servers answer invalid
// resources with 4xx and an outcome body.
func (c *Client) ValidateURL(ctx context.Context, validateURL string, body []byte) (*outcome.Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validateURL, bytes.NewReader(body))
	if err != nil {
		return nil, failure.New(ErrTransport,
			failure.Message("Failed to build validation request"),
			failure.Context{
				"url":   validateURL,
				"error": err.Error(),
			},
		)
	}
	req.Header.Set("Content-Type", MediaType)
	req.Header.Set("Accept", MediaType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.New(ErrTransport,
			failure.Message("Validation request failed"),
			failure.Context{
				"url":   validateURL,
				"error": err.Error(),
			},
		)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.New(ErrTransport,
			failure.Message("Failed to read validation response"),
			failure.Context{
				"url":   validateURL,
				"error": err.Error(),
			},
		)
	}

	o, err := outcome.Parse(data)
	if err != nil {
		return nil, failure.New(ErrTransport,
			failure.Message("Validation response is not an outcome"),
			failure.Context{
				"url":    validateURL,
				"status": resp.Status,
				"error":  err.Error(),
			},
		)
	}
	return o, nil
}
