package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/typeindex/internal/algebra"
	"github.com/ppiankov/typeindex/internal/dereference"
	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/rdf"
	"github.com/ppiankov/typeindex/internal/worker"
)

const (
	profileURL = "https://alice.pod.example/profile/card"
	indexURL   = "https://alice.pod.example/settings/publicTypeIndex"
	bookmark   = "http://www.w3.org/2002/01/bookmark#Bookmark"
	note       = "http://schema.org/TextDigitalDocument"
)

func iri(s string) quad.IRI { return quad.IRI(s) }

// podDereferencer serves a profile pointing at one type index with two registrations
func podDereferencer(calls *[]string) dereference.Dereferencer {
	return dereference.Func(func(_ context.Context, url string) (*dereference.Response, error) {
		*calls = append(*calls, url)
		switch url {
		case profileURL:
			return &dereference.Response{
				URL:  profileURL,
				Meta: model.FetchMeta{StatusCode: 200, ContentType: "application/n-triples"},
				Data: rdf.NewSliceStream(
					quad.Make(iri(profileURL+"#me"), rdf.SolidPublicTypeIndex, iri(indexURL), nil),
				),
			}, nil
		case indexURL:
			return &dereference.Response{
				URL: indexURL,
				Data: rdf.NewSliceStream(
					quad.Make(iri(indexURL+"#b"), rdf.SolidForClass, iri(bookmark), nil),
					quad.Make(iri(indexURL+"#b"), rdf.SolidInstance, iri("https://alice.pod.example/bookmarks"), nil),
					quad.Make(iri(indexURL+"#n"), rdf.SolidForClass, iri(note), nil),
					quad.Make(iri(indexURL+"#n"), rdf.SolidInstanceContainer, iri("https://alice.pod.example/notes/"), nil),
				),
			}, nil
		}
		return nil, &dereference.StatusError{Code: 404, Status: "404 Not Found"}
	})
}

func newPipeline(t *testing.T, cfg *model.Config, deref dereference.Dereferencer, classes ...string) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, Options{Classes: classes, Dereferencer: deref})
	require.NoError(t, err)
	return p
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(bookmark, note)
	require.Len(t, q.Patterns, 2)
	assert.Equal(t, rdf.RDFType, q.Patterns[0].Predicate)
	assert.Equal(t, iri(note), q.Patterns[1].Object)

	classes := algebra.RelevantClasses(q)
	assert.True(t, algebra.HasClass(classes, iri(bookmark)))

	empty := BuildQuery()
	require.Len(t, empty.Patterns, 1)
	assert.Empty(t, algebra.RelevantClasses(empty))
}

func TestExtractURL_MatchingClass(t *testing.T) {
	var calls []string
	p := newPipeline(t, model.DefaultConfig(), podDereferencer(&calls), bookmark)

	report, err := p.ExtractURL(context.Background(), profileURL)
	require.NoError(t, err)

	assert.Equal(t, []string{profileURL, indexURL}, calls)
	assert.Equal(t, []model.Link{{URL: "https://alice.pod.example/bookmarks"}}, report.Links)
	assert.Equal(t, []string{bookmark}, report.Classes)
	assert.False(t, report.AllClasses)
	assert.Equal(t, 200, report.FetchMeta.StatusCode)
}

func TestExtractURL_AllTypes(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Extractor.OnlyMatchingTypes = false

	var calls []string
	report, err := newPipeline(t, cfg, podDereferencer(&calls)).ExtractURL(context.Background(), profileURL)
	require.NoError(t, err)

	assert.True(t, report.AllClasses)
	assert.Equal(t, []model.Link{
		{URL: "https://alice.pod.example/bookmarks"},
		{URL: "https://alice.pod.example/notes/"},
	}, report.Links)
}

func TestExtractURL_NoClasses(t *testing.T) {
	var calls []string
	report, err := newPipeline(t, model.DefaultConfig(), podDereferencer(&calls)).ExtractURL(context.Background(), profileURL)
	require.NoError(t, err)

	assert.Empty(t, report.Links)
	assert.NotNil(t, report.Links)
	assert.Len(t, calls, 2, "type index is still dereferenced")
}

func TestExtractURL_SeedFailure(t *testing.T) {
	var calls []string
	_, err := newPipeline(t, model.DefaultConfig(), podDereferencer(&calls)).ExtractURL(context.Background(), "https://missing.example/")

	var statusErr *dereference.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.True(t, strings.HasPrefix(err.Error(), "dereference seed:"))
}

func TestExtractURL_TypeIndexFailure(t *testing.T) {
	boom := errors.New("boom")
	deref := dereference.Func(func(_ context.Context, url string) (*dereference.Response, error) {
		if url == profileURL {
			return &dereference.Response{URL: url, Data: rdf.NewSliceStream(
				quad.Make(iri(profileURL), rdf.SolidPrivateTypeIndex, iri(indexURL), nil),
			)}, nil
		}
		return nil, boom
	})

	_, err := newPipeline(t, model.DefaultConfig(), deref, bookmark).ExtractURL(context.Background(), profileURL)
	assert.ErrorIs(t, err, boom)
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Extractor.TypeIndexPredicates = nil

	_, err := NewPipeline(cfg, Options{})
	assert.ErrorIs(t, err, model.ErrNoPredicates)
}

func TestNewPipeline_HTTPDefaults(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()

	p, err := NewPipeline(cfg, Options{})
	require.NoError(t, err)
	_, isHTTP := p.dereferencer.(*dereference.HTTPDereferencer)
	assert.True(t, isHTTP)
}

func TestNewLimiter_DomainOverrides(t *testing.T) {
	cfg := model.RateLimitingConfig{
		RequestsPerSecond: 100,
		BurstSize:         5,
		Domains: []model.DomainRateConfig{
			{Domain: "slow.example", RequestsPerSecond: 0.01, BurstSize: 1},
		},
	}
	limiter := NewLimiter(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// One token, then the next is a hundred seconds away
	require.NoError(t, limiter.Wait(ctx, "https://alice.slow.example/profile/card"))
	assert.Error(t, limiter.Wait(ctx, "https://bob.slow.example/profile/card"))

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx, profileURL))
	}
}

func TestRenderer(t *testing.T) {
	report := &model.Report{
		SourceURL: profileURL,
		FetchMeta: model.FetchMeta{StatusCode: 200, ContentType: "text/turtle", FromCache: true},
		Links:     []model.Link{{URL: "https://a.example/1"}, {URL: "https://a.example/2"}},
	}

	var text bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderText(&text, report))
	assert.Equal(t, "https://a.example/1\nhttps://a.example/2\n", text.String())

	var verbose bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderText(&verbose, report))
	assert.Contains(t, verbose.String(), "(cached)")

	var js bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderJSON(&js, report))
	assert.Contains(t, js.String(), `"url": "https://a.example/2"`)

	var line bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderSeedLine(&line, &worker.SeedResult{URL: "https://x.example", Error: errors.New("nope")}))
	assert.JSONEq(t, `{"url":"https://x.example","error":"nope"}`, line.String())
}
