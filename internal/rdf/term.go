package rdf

import "github.com/cayleygraph/quad"

// Variable is an unbound query term
type Variable string

// String returns the SPARQL form of the variable
func (v Variable) String() string { return "?" + string(v) }

// Native returns the variable name
func (v Variable) Native() interface{} { return string(v) }

var _ quad.Value = Variable("")

// IsVariable reports whether v is unbound
func IsVariable(v quad.Value) bool {
	_, ok := v.(Variable)
	return ok
}

// IsBound reports whether v is a concrete term
func IsBound(v quad.Value) bool {
	return v != nil && !IsVariable(v)
}

// SameIRI reports whether v is an IRI equal to iri, with known prefixes expanded
func SameIRI(v quad.Value, iri quad.IRI) bool {
	got, ok := v.(quad.IRI)
	if !ok {
		return false
	}
	return got == iri || got.Full() == iri.Full()
}

// IRISet is a lookup of IRIs by expanded form
type IRISet map[quad.IRI]struct{}

// NewIRISet builds a set from raw IRI strings
func NewIRISet(iris ...string) IRISet {
	set := make(IRISet, len(iris))
	for _, s := range iris {
		set[quad.IRI(s).Full()] = struct{}{}
	}
	return set
}

// Contains reports whether v is an IRI in the set
func (s IRISet) Contains(v quad.Value) bool {
	iri, ok := v.(quad.IRI)
	if !ok {
		return false
	}
	_, found := s[iri.Full()]
	return found
}
