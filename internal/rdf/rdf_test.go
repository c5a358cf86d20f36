package rdf

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingStream struct {
	*SliceStream
	closed bool
}

func (c *closingStream) Close() error {
	c.closed = true
	return nil
}

type failingStream struct{}

func (failingStream) ReadQuad() (quad.Quad, error) {
	return quad.Quad{}, errors.New("broken pipe")
}

func TestParse_NTriples(t *testing.T) {
	doc := `<http://example.org/s> <http://example.org/p> <http://example.org/o> .
<http://example.org/s> <http://example.org/p> "literal" .
`
	stream, err := Parse("application/n-triples; charset=utf-8", strings.NewReader(doc))
	require.NoError(t, err)

	quads, err := ReadAll(stream)
	require.NoError(t, err)
	require.Len(t, quads, 2)

	assert.Equal(t, quad.IRI("http://example.org/s"), quads[0].Subject)
	assert.Equal(t, quad.IRI("http://example.org/o"), quads[0].Object)
	assert.Equal(t, quad.String("literal"), quads[1].Object)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("image/png", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedMediaType))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/n-quads", MediaType("Application/N-Quads; charset=utf-8"))
	assert.Equal(t, "text/turtle", MediaType("text/turtle;;"))
	assert.Equal(t, "", MediaType(""))
}

func TestForEach_ClosesStream(t *testing.T) {
	s := &closingStream{SliceStream: NewSliceStream(
		quad.MakeIRI("ex:s", "ex:p", "ex:o", ""),
		quad.MakeIRI("ex:s", "ex:p", "ex:o2", ""),
	)}

	count := 0
	err := ForEach(s, func(quad.Quad) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, s.closed)
	assert.Equal(t, 0, s.Remaining())
}

func TestForEach_PropagatesErrors(t *testing.T) {
	err := ForEach(failingStream{}, func(quad.Quad) error { return nil })
	assert.EqualError(t, err, "broken pipe")

	stop := errors.New("stop")
	err = ForEach(NewSliceStream(quad.MakeIRI("ex:s", "ex:p", "ex:o", "")), func(quad.Quad) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestForEach_NilStream(t *testing.T) {
	assert.NoError(t, ForEach(nil, func(quad.Quad) error { return nil }))
}

func TestSliceStream_EOF(t *testing.T) {
	s := NewSliceStream()
	_, err := s.ReadQuad()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerms(t *testing.T) {
	assert.True(t, IsVariable(Variable("s")))
	assert.False(t, IsBound(Variable("s")))
	assert.False(t, IsBound(nil))
	assert.True(t, IsBound(quad.IRI("ex:class1")))
	assert.Equal(t, "?s", Variable("s").String())

	assert.True(t, SameIRI(quad.IRI("rdf:type"), RDFType))
	assert.True(t, SameIRI(RDFType, RDFType))
	assert.False(t, SameIRI(quad.String("rdf:type"), RDFType))
}

func TestIRISet(t *testing.T) {
	set := NewIRISet("ex:typeIndex1", "ex:typeIndex2")
	assert.True(t, set.Contains(quad.IRI("ex:typeIndex1")))
	assert.False(t, set.Contains(quad.IRI("ex:px")))
	assert.False(t, set.Contains(quad.String("ex:typeIndex1")))
}
