package algebra

import (
	"github.com/cayleygraph/quad"

	"github.com/ppiankov/typeindex/internal/rdf"
)

// Walk visits op and its descendants depth-first in pre-order.
// Returning false from fn skips the children of that node.
func Walk(op Operation, fn func(Operation) bool) {
	var walk func(Operation)
	walk = func(n Operation) {
		if IsNil(n) {
			return
		}
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(op)
}

// Patterns returns every triple pattern in the tree, in visiting order
func Patterns(op Operation) []*Pattern {
	var patterns []*Pattern
	Walk(op, func(n Operation) bool {
		if p, ok := n.(*Pattern); ok {
			patterns = append(patterns, p)
		}
		return true
	})
	return patterns
}

// RelevantClasses collects the bound objects of all rdf:type patterns in the tree
func RelevantClasses(op Operation) map[quad.Value]struct{} {
	classes := make(map[quad.Value]struct{})
	for _, p := range Patterns(op) {
		if rdf.SameIRI(p.Predicate, rdf.RDFType) && rdf.IsBound(p.Object) {
			classes[normalize(p.Object)] = struct{}{}
		}
	}
	return classes
}

// HasClass reports whether class is in a set built by RelevantClasses
func HasClass(classes map[quad.Value]struct{}, class quad.Value) bool {
	if class == nil {
		return false
	}
	_, ok := classes[normalize(class)]
	return ok
}

// normalize expands prefixed IRIs so set lookups match either form
func normalize(v quad.Value) quad.Value {
	if iri, ok := v.(quad.IRI); ok {
		return iri.Full()
	}
	return v
}

// IsNil reports whether op is nil, including typed nil pointers stored in the interface
func IsNil(op Operation) bool {
	if op == nil {
		return true
	}
	switch n := op.(type) {
	case *Pattern:
		return n == nil
	case *BGP:
		return n == nil
	case *Join:
		return n == nil
	case *LeftJoin:
		return n == nil
	case *Union:
		return n == nil
	case *Minus:
		return n == nil
	case *Filter:
		return n == nil
	case *Project:
		return n == nil
	case *Distinct:
		return n == nil
	case *Slice:
		return n == nil
	case *Graph:
		return n == nil
	}
	return false
}
