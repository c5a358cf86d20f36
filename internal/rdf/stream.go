package rdf

import (
	"errors"
	"io"

	"github.com/cayleygraph/quad"
)

// Stream is a finite, single-pass sequence of triples.
// ReadQuad returns io.EOF once the stream is exhausted.
type Stream interface {
	ReadQuad() (quad.Quad, error)
}

// SliceStream serves triples from memory
type SliceStream struct {
	quads []quad.Quad
	pos   int
}

// NewSliceStream creates a stream over the given triples
func NewSliceStream(quads ...quad.Quad) *SliceStream {
	return &SliceStream{quads: quads}
}

// ReadQuad returns the next triple
func (s *SliceStream) ReadQuad() (quad.Quad, error) {
	if s.pos >= len(s.quads) {
		return quad.Quad{}, io.EOF
	}
	q := s.quads[s.pos]
	s.pos++
	return q, nil
}

// Remaining returns how many triples have not been read yet
func (s *SliceStream) Remaining() int {
	return len(s.quads) - s.pos
}

// ForEach drains the stream, calling fn for every triple.
// The stream is closed afterwards when it implements io.Closer.
func ForEach(s Stream, fn func(quad.Quad) error) (err error) {
	if s == nil {
		return nil
	}
	defer func() {
		if closeErr := Close(s); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for {
		q, readErr := s.ReadQuad()
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
		if err := fn(q); err != nil {
			return err
		}
	}
}

// ReadAll drains the stream into a slice
func ReadAll(s Stream) ([]quad.Quad, error) {
	var out []quad.Quad
	err := ForEach(s, func(q quad.Quad) error {
		out = append(out, q)
		return nil
	})
	return out, err
}

// Close closes the stream if it holds resources
func Close(s Stream) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// multiStream reads its parts one after the other
type multiStream struct {
	parts []Stream
}

// Concat joins streams into one; each part is closed once exhausted
func Concat(parts ...Stream) Stream {
	return &multiStream{parts: parts}
}

func (m *multiStream) ReadQuad() (quad.Quad, error) {
	for len(m.parts) > 0 {
		q, err := m.parts[0].ReadQuad()
		if errors.Is(err, io.EOF) {
			_ = Close(m.parts[0])
			m.parts = m.parts[1:]
			continue
		}
		return q, err
	}
	return quad.Quad{}, io.EOF
}

func (m *multiStream) Close() error {
	var firstErr error
	for _, p := range m.parts {
		if err := Close(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.parts = nil
	return firstErr
}
