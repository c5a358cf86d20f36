package model

import "time"

// Result is the output of a single extraction run
type Result struct {
	Links []Link `json:"links"`
}

// Report is the host-level record of extracting links from one seed document.
// It wraps Result with fetch metadata for CLI output.
type Report struct {
	SourceURL  string    `json:"source_url"`            // Seed document that was dereferenced
	FetchedAt  time.Time `json:"fetched_at"`            // When the seed was fetched
	FetchMeta  FetchMeta `json:"fetch_meta"`            // HTTP metadata of the seed
	Classes    []string  `json:"classes,omitempty"`     // Classes the query asked for
	AllClasses bool      `json:"all_classes,omitempty"` // Whether class filtering was disabled
	Links      []Link    `json:"links"`                 // Extracted links
}

// FetchMeta contains HTTP metadata from dereferencing a document
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	FromCache    bool              `json:"from_cache,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}
