// Package querycontext defines the well-known context entries a query engine
// attaches before asking link extractors for follow-up documents.
package querycontext

import (
	"context"

	"github.com/ppiankov/typeindex/internal/algebra"
)

// Key identifies a query context entry
type Key struct {
	name string
}

func (k Key) String() string { return k.name }

var (
	// KeyQuery holds the algebra of the query being executed
	KeyQuery = Key{"query"}
	// KeyOperation holds the operation currently evaluated for link discovery
	KeyOperation = Key{"query-operation"}
)

// WithQuery stores the active query algebra
func WithQuery(ctx context.Context, op algebra.Operation) context.Context {
	return context.WithValue(ctx, KeyQuery, op)
}

// WithOperation stores the currently evaluated operation
func WithOperation(ctx context.Context, op algebra.Operation) context.Context {
	return context.WithValue(ctx, KeyOperation, op)
}

// Lookup reports whether an entry exists, regardless of its shape
func Lookup(ctx context.Context, key Key) (any, bool) {
	v := ctx.Value(key)
	return v, v != nil
}

// Query returns the active query algebra, if present and well-formed
func Query(ctx context.Context) (algebra.Operation, bool) {
	return operation(ctx, KeyQuery)
}

// Operation returns the current operation, if present and well-formed
func Operation(ctx context.Context) (algebra.Operation, bool) {
	return operation(ctx, KeyOperation)
}

func operation(ctx context.Context, key Key) (algebra.Operation, bool) {
	op, ok := ctx.Value(key).(algebra.Operation)
	if !ok || algebra.IsNil(op) {
		return nil, false
	}
	return op, true
}
