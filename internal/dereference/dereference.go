// Package dereference fetches RDF documents and exposes them as triple streams.
package dereference

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/rdf"
)

// Dereferencer turns a document IRI into its RDF content
type Dereferencer interface {
	Dereference(ctx context.Context, url string) (*Response, error)
}

// Response is a dereferenced document
type Response struct {
	URL         string          // Final URL after redirects
	ContentType string          // Media type the data was parsed as
	Meta        model.FetchMeta // HTTP metadata
	Data        rdf.Stream      // Parsed triples, single pass
}

// ErrDisallowedByRobots is returned when robots.txt forbids the fetch
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// ErrBodyTooLarge is returned when a document exceeds the configured size limit.
// Truncated documents are never parsed or cached.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Func adapts a function to the Dereferencer interface
type Func func(ctx context.Context, url string) (*Response, error)

// Dereference calls f
func (f Func) Dereference(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}
