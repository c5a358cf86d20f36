package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/rdf"
)

// Action is the input of a link extraction
type Action struct {
	URL         string        // Document the metadata was read from
	Metadata    rdf.Stream    // Metadata triples of that document, single pass
	RequestTime time.Duration // Time it took to fetch the document
}

// Actor is a link extractor the host can test and run.
// Run must only be called after Test returned nil for the same context.
type Actor interface {
	Name() string
	Test(ctx context.Context, action Action) error
	Run(ctx context.Context, action Action) (*model.Result, error)
}

var (
	ErrNoQuery          = errors.New("can only work in the context of a query")
	ErrNoQueryOperation = errors.New("can only work in the context of a query operation")
)

// ContextError rejects a query context that lacks a required entry
type ContextError struct {
	Actor string
	Err   error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("Actor %s %s.", e.Actor, e.Err)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}
