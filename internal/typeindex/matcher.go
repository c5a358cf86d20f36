// Package typeindex reads type registrations out of Solid type index documents.
package typeindex

import (
	"context"

	"github.com/cayleygraph/quad"

	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/rdf"
)

// Querier answers the fixed registration query over a document
type Querier interface {
	QueryRegistrations(ctx context.Context, data rdf.Stream) ([]model.Registration, error)
}

// Matcher evaluates
//
//	?registration solid:forClass ?class ;
//	              solid:instance|solid:instanceContainer ?instance .
//
// over a triple stream.
type Matcher struct{}

// NewMatcher creates a registration matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

type registration struct {
	classes   []quad.Value
	instances []quad.Value
}

// QueryRegistrations drains data and returns every (instance, class) pair.
// Registrations appear in order of their subject's first triple; within a
// subject, pairs are ordered by class then by instance.
func (m *Matcher) QueryRegistrations(ctx context.Context, data rdf.Stream) ([]model.Registration, error) {
	bySubject := make(map[quad.Value]*registration)
	var order []quad.Value

	get := func(s quad.Value) *registration {
		r, ok := bySubject[s]
		if !ok {
			r = &registration{}
			bySubject[s] = r
			order = append(order, s)
		}
		return r
	}

	err := rdf.ForEach(data, func(q quad.Quad) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case rdf.SameIRI(q.Predicate, rdf.SolidForClass):
			r := get(q.Subject)
			r.classes = appendUnique(r.classes, q.Object)
		case rdf.SameIRI(q.Predicate, rdf.SolidInstance), rdf.SameIRI(q.Predicate, rdf.SolidInstanceContainer):
			r := get(q.Subject)
			r.instances = appendUnique(r.instances, q.Object)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []model.Registration
	for _, s := range order {
		r := bySubject[s]
		for _, class := range r.classes {
			for _, instance := range r.instances {
				out = append(out, model.Registration{Instance: instance, Class: class})
			}
		}
	}
	return out, nil
}

// appendUnique keeps set semantics for repeated identical triples
func appendUnique(values []quad.Value, v quad.Value) []quad.Value {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
