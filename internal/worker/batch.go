package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/typeindex/internal/model"
)

// Extractor runs the type index extraction for one seed document
type Extractor interface {
	ExtractURL(ctx context.Context, url string) (*model.Report, error)
}

// SeedJob extracts the links of one seed URL
type SeedJob struct {
	URL       string
	Extractor Extractor
}

// Execute runs the extraction
func (j *SeedJob) Execute(ctx context.Context) Result {
	report, err := j.Extractor.ExtractURL(ctx, j.URL)
	if err != nil {
		return &SeedResult{URL: j.URL, Error: err}
	}
	return &SeedResult{URL: j.URL, Report: report}
}

// SeedResult is the outcome of one seed
type SeedResult struct {
	URL    string        `json:"url"`
	Report *model.Report `json:"report,omitempty"`
	Error  error         `json:"-"`
}

// GetError returns the extraction error, if any
func (r *SeedResult) GetError() error {
	return r.Error
}

// BatchProcessor extracts links from many seeds concurrently
type BatchProcessor struct {
	extractor   Extractor
	concurrency int
	progress    func(*SeedResult)
}

// NewBatchProcessor creates a batch processor with the given number of workers
func NewBatchProcessor(extractor Extractor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		extractor:   extractor,
		concurrency: concurrency,
	}
}

// WithProgress reports each seed as it completes
func (b *BatchProcessor) WithProgress(fn func(*SeedResult)) *BatchProcessor {
	b.progress = fn
	return b
}

// ProcessURLs extracts every seed and returns results in input order.
// Seeds left unprocessed after ctx is cancelled are reported with the context error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*SeedResult {
	if len(urls) == 0 {
		return []*SeedResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	if b.progress != nil {
		pool.OnResult(func(r Result) { b.progress(r.(*SeedResult)) })
	}
	pool.Start()

	for _, url := range urls {
		if !pool.Submit(&SeedJob{URL: url, Extractor: b.extractor}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*SeedResult, 0, len(urls))
	for _, r := range results {
		out = append(out, r.(*SeedResult))
	}
	// cancellation drops queued jobs and undelivered results
	if len(out) < len(urls) {
		out = fillMissing(ctx, urls, out)
	}
	return out
}

// fillMissing reports seeds that never produced a result
func fillMissing(ctx context.Context, urls []string, got []*SeedResult) []*SeedResult {
	done := make(map[string]*SeedResult, len(got))
	for _, r := range got {
		done[r.URL] = r
	}
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}

	out := make([]*SeedResult, len(urls))
	for i, url := range urls {
		if r, ok := done[url]; ok {
			out[i] = r
			continue
		}
		out[i] = &SeedResult{URL: url, Error: err}
	}
	return out
}

// ProcessFile reads seeds from a file and extracts them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SeedResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads one URL per line, skipping blanks, comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadURLs(file)
}

// ReadURLs reads seeds from r; "-" on the command line maps to stdin through this
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan urls: %w", err)
	}
	return urls, nil
}
