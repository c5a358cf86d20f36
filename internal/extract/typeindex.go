package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cayleygraph/quad"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/typeindex/internal/algebra"
	"github.com/ppiankov/typeindex/internal/dereference"
	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/metrics"
	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/querycontext"
	"github.com/ppiankov/typeindex/internal/rdf"
	"github.com/ppiankov/typeindex/internal/typeindex"
)

// Options configures a TypeIndexExtractor
type Options struct {
	Name                string
	TypeIndexPredicates []string
	OnlyMatchingTypes   bool
	FanOut              model.FanOut
	Concurrency         int // Max type index fetches in flight for FanOutConcurrent

	Dereferencer dereference.Dereferencer
	Querier      typeindex.Querier // Defaults to typeindex.NewMatcher()
	Logger       logger.Logger     // Defaults to a no-op logger
	Metrics      *metrics.Metrics  // Optional
}

// TypeIndexExtractor follows type index declarations in a document's metadata
// to the instance documents registered for the classes a query asks for.
type TypeIndexExtractor struct {
	name              string
	predicates        rdf.IRISet
	onlyMatchingTypes bool
	fanOut            model.FanOut
	concurrency       int
	dereferencer      dereference.Dereferencer
	querier           typeindex.Querier
	log               logger.Logger
	metrics           *metrics.Metrics
}

var _ Actor = (*TypeIndexExtractor)(nil)

// NewTypeIndexExtractor creates an extractor from options
func NewTypeIndexExtractor(opts Options) (*TypeIndexExtractor, error) {
	if len(opts.TypeIndexPredicates) == 0 {
		return nil, model.ErrNoPredicates
	}
	if opts.Dereferencer == nil {
		return nil, errors.New("a dereferencer is required")
	}
	if opts.Name == "" {
		opts.Name = "extract-links-solid-type-index"
	}
	if opts.FanOut == "" {
		opts.FanOut = model.FanOutSequential
	}
	if opts.FanOut != model.FanOutSequential && opts.FanOut != model.FanOutConcurrent {
		return nil, &model.ConfigError{Field: "fan_out", Value: string(opts.FanOut)}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Querier == nil {
		opts.Querier = typeindex.NewMatcher()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &TypeIndexExtractor{
		name:              opts.Name,
		predicates:        rdf.NewIRISet(opts.TypeIndexPredicates...),
		onlyMatchingTypes: opts.OnlyMatchingTypes,
		fanOut:            opts.FanOut,
		concurrency:       opts.Concurrency,
		dereferencer:      opts.Dereferencer,
		querier:           opts.Querier,
		log:               opts.Logger.With(logger.String("actor", opts.Name)),
		metrics:           opts.Metrics,
	}, nil
}

// Name returns the actor name used in rejection messages
func (e *TypeIndexExtractor) Name() string {
	return e.name
}

// Test accepts only contexts that carry both the query and the current operation
func (e *TypeIndexExtractor) Test(ctx context.Context, _ Action) error {
	if _, ok := querycontext.Lookup(ctx, querycontext.KeyQuery); !ok {
		return &ContextError{Actor: e.name, Err: ErrNoQuery}
	}
	if _, ok := querycontext.Operation(ctx); !ok {
		return &ContextError{Actor: e.name, Err: ErrNoQueryOperation}
	}
	if _, ok := querycontext.Query(ctx); !ok {
		return &ContextError{Actor: e.name, Err: ErrNoQuery}
	}
	return nil
}

// runStats feeds metrics and logs
type runStats struct {
	indexes       int
	registrations int
}

// Run extracts the instance links of all type indexes declared in the metadata
func (e *TypeIndexExtractor) Run(ctx context.Context, action Action) (*model.Result, error) {
	start := time.Now()
	links, stats, err := e.run(ctx, action)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	e.metrics.ObserveRun(outcome, time.Since(start).Seconds(), stats.indexes, stats.registrations, len(links))

	if err != nil {
		e.log.Debug("extraction failed", logger.String("url", action.URL), logger.Error(err))
		return nil, err
	}

	e.log.Debug("extraction finished",
		logger.String("url", action.URL),
		logger.Int("type_indexes", stats.indexes),
		logger.Int("registrations", stats.registrations),
		logger.Int("links", len(links)),
	)
	return &model.Result{Links: links}, nil
}

func (e *TypeIndexExtractor) run(ctx context.Context, action Action) ([]model.Link, runStats, error) {
	var stats runStats

	var classes map[quad.Value]struct{}
	if e.onlyMatchingTypes {
		query, _ := querycontext.Query(ctx)
		classes = algebra.RelevantClasses(query)
	}

	indexes, err := e.discover(action.Metadata)
	stats.indexes = len(indexes)
	if err != nil {
		return []model.Link{}, stats, fmt.Errorf("read metadata: %w", err)
	}

	perIndex := make([][]model.Link, len(indexes))
	regCounts := make([]int, len(indexes))
	handle := func(ctx context.Context, i int) error {
		links, n, err := e.handleTypeIndex(ctx, indexes[i], classes)
		if err != nil {
			return err
		}
		perIndex[i] = links
		regCounts[i] = n
		return nil
	}

	if e.fanOut == model.FanOutConcurrent && len(indexes) > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)
		for i := range indexes {
			g.Go(func() error {
				return handle(gCtx, i)
			})
		}
		err = g.Wait()
	} else {
		for i := range indexes {
			if err = handle(ctx, i); err != nil {
				break
			}
		}
	}

	for _, n := range regCounts {
		stats.registrations += n
	}
	if err != nil {
		return []model.Link{}, stats, err
	}

	links := []model.Link{}
	for _, l := range perIndex {
		links = append(links, l...)
	}
	return links, stats, nil
}

// discover drains the metadata stream and returns type index IRIs in stream order
func (e *TypeIndexExtractor) discover(metadata rdf.Stream) ([]string, error) {
	var indexes []string
	err := rdf.ForEach(metadata, func(q quad.Quad) error {
		if !e.predicates.Contains(q.Predicate) {
			return nil
		}
		iri, ok := q.Object.(quad.IRI)
		if !ok {
			e.log.Debug("ignoring non-IRI type index object", logger.String("object", fmt.Sprint(q.Object)))
			return nil
		}
		indexes = append(indexes, string(iri))
		return nil
	})
	return indexes, err
}

// handleTypeIndex dereferences one type index and filters its registrations
func (e *TypeIndexExtractor) handleTypeIndex(ctx context.Context, iri string, classes map[quad.Value]struct{}) ([]model.Link, int, error) {
	e.log.Debug("dereferencing type index", logger.String("type_index", iri))

	resp, err := e.dereferencer.Dereference(ctx, iri)
	if err != nil {
		return nil, 0, fmt.Errorf("dereference type index %s: %w", iri, err)
	}
	if resp == nil {
		return nil, 0, nil
	}
	defer func() { _ = rdf.Close(resp.Data) }()

	registrations, err := e.querier.QueryRegistrations(ctx, resp.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("query type index %s: %w", iri, err)
	}

	var links []model.Link
	for _, reg := range registrations {
		if e.onlyMatchingTypes && !algebra.HasClass(classes, reg.Class) {
			continue
		}
		links = append(links, model.Link{URL: reg.InstanceURL()})
	}
	return links, len(registrations), nil
}
