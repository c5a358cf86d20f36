package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/worker"
)

// Renderer writes reports for the CLI
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer; verbose adds fetch metadata to text output
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderText writes one link per line, preceded by a header when verbose
func (r *Renderer) RenderText(w io.Writer, report *model.Report) error {
	if r.verbose {
		cached := ""
		if report.FetchMeta.FromCache {
			cached = " (cached)"
		}
		if _, err := fmt.Fprintf(w, "# %s%s\n# status %d, %s, %d links\n",
			report.SourceURL, cached, report.FetchMeta.StatusCode, report.FetchMeta.ContentType, len(report.Links)); err != nil {
			return err
		}
	}
	for _, link := range report.Links {
		if _, err := fmt.Fprintln(w, link.URL); err != nil {
			return err
		}
	}
	return nil
}

// seedLine is one line of batch output
type seedLine struct {
	URL    string        `json:"url"`
	Report *model.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// RenderSeedLine writes one compact JSON line for a batch seed
func (r *Renderer) RenderSeedLine(w io.Writer, res *worker.SeedResult) error {
	line := seedLine{URL: res.URL, Report: res.Report}
	if res.Error != nil {
		line.Error = res.Error.Error()
	}
	return json.NewEncoder(w).Encode(line)
}
