package rdf

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/nquads"
)

// ErrUnsupportedMediaType is returned for documents no registered parser understands
var ErrUnsupportedMediaType = errors.New("unsupported RDF media type")

// AcceptHeader lists the media types Parse understands, most preferred first
const AcceptHeader = "application/n-quads, application/n-triples, application/ld+json;q=0.9, */*;q=0.1"

// MediaType strips parameters from a Content-Type header value
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.ToLower(mt)
}

// Parse returns a stream over the RDF document in r
func Parse(contentType string, r io.Reader) (Stream, error) {
	switch mt := MediaType(contentType); mt {
	case "application/n-quads", "application/n-triples", "text/x-nquads", "text/plain":
		return nquads.NewReader(r, false), nil
	case "application/ld+json", "application/json":
		return jsonld.NewReader(r), nil
	default:
		if f := quad.FormatByMime(mt); f != nil && f.Reader != nil {
			return f.Reader(r), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mt)
	}
}
