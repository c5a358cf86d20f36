package dereference

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/typeindex/internal/cache"
	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/metrics"
	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/rdf"
	"github.com/ppiankov/typeindex/internal/util"
	"github.com/ppiankov/typeindex/internal/worker"
)

const fetchMaxRetries = 3

// fetchSleepFunc waits between retries; it returns early with ctx's error (injectable for tests)
var fetchSleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPDereferencer fetches RDF documents over HTTP
type HTTPDereferencer struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
	log        logger.Logger
	metrics    *metrics.Metrics
}

// Option customizes an HTTPDereferencer
type Option func(*HTTPDereferencer)

// WithLimiter paces requests per domain
func WithLimiter(l *worker.Limiter) Option {
	return func(d *HTTPDereferencer) { d.limiter = l }
}

// WithRobots enforces robots.txt rules and crawl delays
func WithRobots(r *util.RobotsChecker) Option {
	return func(d *HTTPDereferencer) { d.robots = r }
}

// WithCache stores fetched documents in c for ttl (0 uses the cache default)
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(d *HTTPDereferencer) {
		d.cache = c
		d.cacheTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *HTTPDereferencer) { d.log = l }
}

// WithMetrics records dereference outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *HTTPDereferencer) { d.metrics = m }
}

// NewHTTPDereferencer creates a dereferencer from the HTTP configuration
func NewHTTPDereferencer(cfg model.HTTPConfig, opts ...Option) *HTTPDereferencer {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in flag
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	d := &HTTPDereferencer{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Client returns the underlying HTTP client, shared with the robots checker
func (d *HTTPDereferencer) Client() *http.Client {
	return d.httpClient
}

// document is a fetched body before parsing; it is also the cache record
type document struct {
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	Body        []byte          `json:"body"`
	Meta        model.FetchMeta `json:"meta"`
}

// Dereference fetches rawURL and parses it as RDF
func (d *HTTPDereferencer) Dereference(ctx context.Context, rawURL string) (*Response, error) {
	start := time.Now()
	resp, fromCache, err := d.dereference(ctx, rawURL)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	d.metrics.ObserveDereference(outcome, time.Since(start).Seconds(), fromCache)
	return resp, err
}

func (d *HTTPDereferencer) dereference(ctx context.Context, rawURL string) (*Response, bool, error) {
	target, err := documentURL(rawURL)
	if err != nil {
		return nil, false, err
	}

	doc, fromCache, err := d.load(ctx, target)
	if err != nil {
		return nil, false, err
	}

	if rdf.MediaType(doc.ContentType) == "text/html" {
		return d.fromHTML(ctx, doc, fromCache)
	}

	data, err := rdf.Parse(doc.ContentType, bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fromCache, fmt.Errorf("parse %s: %w", doc.URL, err)
	}
	return &Response{URL: doc.URL, ContentType: rdf.MediaType(doc.ContentType), Meta: doc.Meta, Data: data}, fromCache, nil
}

// fromHTML reads embedded JSON-LD, or follows one rel=alternate link to an RDF serialization
func (d *HTTPDereferencer) fromHTML(ctx context.Context, doc *document, fromCache bool) (*Response, bool, error) {
	page, err := ParseHTML(doc.Body, doc.URL)
	if err != nil {
		return nil, fromCache, fmt.Errorf("parse html %s: %w", doc.URL, err)
	}

	if len(page.JSONLD) > 0 {
		streams := make([]rdf.Stream, 0, len(page.JSONLD))
		for _, block := range page.JSONLD {
			s, err := rdf.Parse("application/ld+json", strings.NewReader(block))
			if err != nil {
				return nil, fromCache, err
			}
			streams = append(streams, s)
		}
		return &Response{URL: doc.URL, ContentType: "application/ld+json", Meta: doc.Meta, Data: rdf.Concat(streams...)}, fromCache, nil
	}

	if page.Alternate == "" {
		return nil, fromCache, fmt.Errorf("%w: %s has no RDF alternate", rdf.ErrUnsupportedMediaType, doc.URL)
	}

	d.log.Debug("following alternate representation", logger.String("url", doc.URL), logger.String("alternate", page.Alternate))
	alt, altCached, err := d.load(ctx, page.Alternate)
	if err != nil {
		return nil, altCached, fmt.Errorf("alternate of %s: %w", doc.URL, err)
	}
	data, err := rdf.Parse(alt.ContentType, bytes.NewReader(alt.Body))
	if err != nil {
		return nil, altCached, fmt.Errorf("parse %s: %w", alt.URL, err)
	}
	return &Response{URL: alt.URL, ContentType: rdf.MediaType(alt.ContentType), Meta: alt.Meta, Data: data}, altCached, nil
}

// load returns the raw document from cache or the network
func (d *HTTPDereferencer) load(ctx context.Context, target string) (*document, bool, error) {
	key := cache.CacheKey(target)
	if d.cache != nil {
		if raw, found := d.cache.Get(key); found {
			var doc document
			if err := json.Unmarshal(raw, &doc); err == nil {
				doc.Meta.FromCache = true
				return &doc, true, nil
			}
			_ = d.cache.Delete(key)
		}
	}

	var crawlDelay time.Duration
	if d.robots != nil {
		allowed, delay, err := d.robots.CanFetch(ctx, target)
		if err != nil {
			return nil, false, err
		}
		if !allowed {
			return nil, false, fmt.Errorf("%w: %s", ErrDisallowedByRobots, target)
		}
		crawlDelay = delay
	}

	doc, err := d.fetchWithRetry(ctx, target, crawlDelay)
	if err != nil {
		return nil, false, err
	}

	if d.cache != nil {
		if raw, err := json.Marshal(doc); err == nil {
			if err := d.cache.Set(key, raw, d.cacheTTL); err != nil {
				d.log.Warn("cache write failed", logger.String("url", target), logger.Error(err))
			}
		}
	}
	return doc, false, nil
}

// fetchWithRetry retries transient failures with exponential backoff
func (d *HTTPDereferencer) fetchWithRetry(ctx context.Context, target string, crawlDelay time.Duration) (*document, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		doc, err := d.fetch(ctx, target, crawlDelay)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			d.log.Debug("retrying fetch", logger.String("url", target), logger.Duration("backoff", backoff), logger.Error(err))
			if err := fetchSleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
		}
	}
	return nil, lastErr
}

// fetch performs a single GET after pacing
func (d *HTTPDereferencer) fetch(ctx context.Context, target string, crawlDelay time.Duration) (*document, error) {
	if d.limiter != nil {
		if err := d.limiter.WaitWithDelay(ctx, target, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", rdf.AcceptHeader+", text/html;q=0.2")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Headers:      make(map[string]string),
	}
	for _, key := range []string{"Content-Length", "Server", "Cache-Control", "Link"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrBodyTooLarge, target, d.maxBytes)
	}

	return &document{
		URL:         resp.Request.URL.String(),
		ContentType: meta.ContentType,
		Body:        body,
		Meta:        meta,
	}, nil
}

// documentURL validates rawURL and drops its fragment
func documentURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %s", u.Scheme, rawURL)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// isRetryableFetchError reports whether err looks transient
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
