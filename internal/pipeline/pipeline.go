package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cayleygraph/quad"

	"github.com/ppiankov/typeindex/internal/algebra"
	"github.com/ppiankov/typeindex/internal/cache"
	"github.com/ppiankov/typeindex/internal/dereference"
	"github.com/ppiankov/typeindex/internal/extract"
	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/metrics"
	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/querycontext"
	"github.com/ppiankov/typeindex/internal/rdf"
	"github.com/ppiankov/typeindex/internal/util"
	"github.com/ppiankov/typeindex/internal/worker"
)

// Options wires a Pipeline; zero values fall back to the configuration
type Options struct {
	Classes      []string                 // Classes the synthesized query asks for
	Dereferencer dereference.Dereferencer // Defaults to an HTTPDereferencer built from the config
	Logger       logger.Logger
	Metrics      *metrics.Metrics
}

// Pipeline extracts type index links for seed documents
type Pipeline struct {
	dereferencer dereference.Dereferencer
	extractor    extract.Actor
	classes      []string
	allClasses   bool
	log          logger.Logger
}

var _ worker.Extractor = (*Pipeline)(nil)

// NewPipeline builds the dereferencer and extractor described by cfg
func NewPipeline(cfg *model.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	deref := opts.Dereferencer
	if deref == nil {
		deref = newHTTPDereferencer(cfg, log, opts.Metrics)
	}

	extractor, err := extract.NewTypeIndexExtractor(extract.Options{
		TypeIndexPredicates: cfg.Extractor.TypeIndexPredicates,
		OnlyMatchingTypes:   cfg.Extractor.OnlyMatchingTypes,
		FanOut:              cfg.Extractor.FanOut,
		Concurrency:         cfg.Concurrency.DereferenceLimit,
		Dereferencer:        deref,
		Logger:              log,
		Metrics:             opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	return &Pipeline{
		dereferencer: deref,
		extractor:    extractor,
		classes:      opts.Classes,
		allClasses:   !cfg.Extractor.OnlyMatchingTypes,
		log:          log,
	}, nil
}

func newHTTPDereferencer(cfg *model.Config, log logger.Logger, m *metrics.Metrics) *dereference.HTTPDereferencer {
	opts := []dereference.Option{
		dereference.WithLogger(log),
		dereference.WithMetrics(m),
		dereference.WithLimiter(NewLimiter(cfg.RateLimiting)),
	}
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, dereference.WithCache(c, cfg.Cache.DiskTTL))
	}

	d := dereference.NewHTTPDereferencer(cfg.HTTP, opts...)
	if cfg.HTTP.RespectRobots {
		robots := util.NewRobotsChecker(d.Client(), util.NormalizeUserAgent(cfg.HTTP.UserAgent), time.Hour)
		dereference.WithRobots(robots)(d)
	}
	return d
}

// NewLimiter builds the per-domain limiter, applying provider overrides
func NewLimiter(cfg model.RateLimitingConfig) *worker.Limiter {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for _, d := range cfg.Domains {
		limiter.SetDomainRate(d.Domain, d.RequestsPerSecond, d.BurstSize)
	}
	return limiter
}

// ExtractURL dereferences seed, uses its triples as metadata and runs the extractor
func (p *Pipeline) ExtractURL(ctx context.Context, seed string) (*model.Report, error) {
	fetchedAt := time.Now().UTC()
	resp, err := p.dereferencer.Dereference(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("dereference seed: %w", err)
	}

	report := &model.Report{
		SourceURL:  seed,
		FetchedAt:  fetchedAt,
		Classes:    p.classes,
		AllClasses: p.allClasses,
		Links:      []model.Link{},
	}
	if resp == nil {
		return report, nil
	}
	report.SourceURL = resp.URL
	report.FetchMeta = resp.Meta

	query := BuildQuery(p.classes...)
	ctx = querycontext.WithQuery(ctx, query)
	ctx = querycontext.WithOperation(ctx, query.Patterns[0])

	action := extract.Action{URL: resp.URL, Metadata: resp.Data, RequestTime: time.Since(fetchedAt)}
	if err := p.extractor.Test(ctx, action); err != nil {
		_ = rdf.Close(resp.Data)
		return nil, err
	}

	result, err := p.extractor.Run(ctx, action)
	if err != nil {
		return nil, err
	}
	report.Links = result.Links

	p.log.Info("extracted links",
		logger.String("seed", seed),
		logger.Int("links", len(result.Links)),
		logger.Bool("from_cache", resp.Meta.FromCache),
	)
	return report, nil
}

// BuildQuery returns a basic graph pattern asking for subjects of each class.
// Without classes it is a single unconstrained pattern.
func BuildQuery(classes ...string) *algebra.BGP {
	subject := rdf.Variable("s")
	if len(classes) == 0 {
		return algebra.NewBGP(algebra.NewPattern(subject, rdf.Variable("p"), rdf.Variable("o")))
	}

	patterns := make([]*algebra.Pattern, 0, len(classes))
	for _, class := range classes {
		patterns = append(patterns, algebra.NewPattern(subject, rdf.RDFType, quad.IRI(class)))
	}
	return algebra.NewBGP(patterns...)
}
