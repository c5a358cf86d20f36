// Package algebra models the query algebra handed to the extractor by the
// query engine. Only the node shapes needed for introspection are represented.
package algebra

import "github.com/cayleygraph/quad"

// Kind tags an algebra node
type Kind string

const (
	KindPattern  Kind = "pattern"
	KindBGP      Kind = "bgp"
	KindJoin     Kind = "join"
	KindLeftJoin Kind = "leftjoin"
	KindUnion    Kind = "union"
	KindMinus    Kind = "minus"
	KindFilter   Kind = "filter"
	KindProject  Kind = "project"
	KindDistinct Kind = "distinct"
	KindSlice    Kind = "slice"
	KindGraph    Kind = "graph"
)

// Operation is a node of the query algebra tree
type Operation interface {
	Type() Kind
	Children() []Operation
}

// Pattern is a triple pattern; any position may be an rdf.Variable
type Pattern struct {
	Subject   quad.Value
	Predicate quad.Value
	Object    quad.Value
	Graph     quad.Value
}

// NewPattern creates a triple pattern in the default graph
func NewPattern(s, p, o quad.Value) *Pattern {
	return &Pattern{Subject: s, Predicate: p, Object: o}
}

func (p *Pattern) Type() Kind            { return KindPattern }
func (p *Pattern) Children() []Operation { return nil }

// BGP is a basic graph pattern
type BGP struct {
	Patterns []*Pattern
}

// NewBGP creates a basic graph pattern
func NewBGP(patterns ...*Pattern) *BGP {
	return &BGP{Patterns: patterns}
}

func (b *BGP) Type() Kind { return KindBGP }

func (b *BGP) Children() []Operation {
	children := make([]Operation, 0, len(b.Patterns))
	for _, p := range b.Patterns {
		if p != nil {
			children = append(children, p)
		}
	}
	return children
}

// Join combines its inputs
type Join struct {
	Input []Operation
}

func (j *Join) Type() Kind            { return KindJoin }
func (j *Join) Children() []Operation { return j.Input }

// LeftJoin is an OPTIONAL block
type LeftJoin struct {
	Left, Right Operation
	Expression  string
}

func (j *LeftJoin) Type() Kind            { return KindLeftJoin }
func (j *LeftJoin) Children() []Operation { return nonNil(j.Left, j.Right) }

// Union is an alternative between its inputs
type Union struct {
	Input []Operation
}

func (u *Union) Type() Kind            { return KindUnion }
func (u *Union) Children() []Operation { return u.Input }

// Minus removes solutions of Right from Left
type Minus struct {
	Left, Right Operation
}

func (m *Minus) Type() Kind            { return KindMinus }
func (m *Minus) Children() []Operation { return nonNil(m.Left, m.Right) }

// Filter restricts Input by an expression kept in its textual form
type Filter struct {
	Input      Operation
	Expression string
}

func (f *Filter) Type() Kind            { return KindFilter }
func (f *Filter) Children() []Operation { return nonNil(f.Input) }

// Project selects variables from Input
type Project struct {
	Input     Operation
	Variables []quad.Value
}

func (p *Project) Type() Kind            { return KindProject }
func (p *Project) Children() []Operation { return nonNil(p.Input) }

// Distinct removes duplicate solutions
type Distinct struct {
	Input Operation
}

func (d *Distinct) Type() Kind            { return KindDistinct }
func (d *Distinct) Children() []Operation { return nonNil(d.Input) }

// Slice applies OFFSET and LIMIT; Length < 0 means unbounded
type Slice struct {
	Input         Operation
	Start, Length int
}

func (s *Slice) Type() Kind            { return KindSlice }
func (s *Slice) Children() []Operation { return nonNil(s.Input) }

// Graph evaluates Input in a named graph
type Graph struct {
	Name  quad.Value
	Input Operation
}

func (g *Graph) Type() Kind            { return KindGraph }
func (g *Graph) Children() []Operation { return nonNil(g.Input) }

func nonNil(ops ...Operation) []Operation {
	out := ops[:0:0]
	for _, op := range ops {
		if op != nil {
			out = append(out, op)
		}
	}
	return out
}
