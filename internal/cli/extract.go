package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/model"
	"github.com/ppiankov/typeindex/internal/pipeline"
)

// httpFlags are shared by extract and batch
type httpFlags struct {
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noRobots    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
}

// extractorFlags select what the synthesized query asks for
type extractorFlags struct {
	types      []string
	allTypes   bool
	predicates []string
	fanOut     string
}

var (
	extractHTTP    httpFlags
	extractQuery   extractorFlags
	extractJSON    bool
	extractTimeout time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "List the documents a seed's type indexes register for the given classes",
	Long: `Extract dereferences the seed document, follows every type index it declares
(solid:publicTypeIndex and solid:privateTypeIndex by default), and prints the
instance documents registered for the requested classes, one per line.

Example:
  typeindex extract https://alice.solidcommunity.net/profile/card#me \
      --type http://www.w3.org/2002/01/bookmark#Bookmark
  typeindex extract https://pod.example/profile/card --all-types --json
  typeindex extract https://pod.example/profile/card --all-types --fan-out concurrent`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	addExtractorFlags(extractCmd, &extractQuery)
	addHTTPFlags(extractCmd, &extractHTTP)
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the report as JSON")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func addExtractorFlags(cmd *cobra.Command, f *extractorFlags) {
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil, "class IRI to look for (repeatable)")
	cmd.Flags().BoolVar(&f.allTypes, "all-types", false, "emit every registration regardless of class")
	cmd.Flags().StringSliceVar(&f.predicates, "predicate", nil, "type index predicate IRI (repeatable, replaces the defaults)")
	cmd.Flags().StringVar(&f.fanOut, "fan-out", "", "type index dereferencing: sequential or concurrent")
}

func addHTTPFlags(cmd *cobra.Command, f *httpFlags) {
	cmd.Flags().DurationVar(&f.timeout, "http-timeout", 0, "per-request HTTP timeout")
	cmd.Flags().StringVar(&f.userAgent, "ua", "", "HTTP User-Agent")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", 0, "max response bytes to read")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().BoolVar(&f.noRobots, "no-robots", false, "ignore robots.txt")
	cmd.Flags().BoolVar(&f.insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed pods)")
	cmd.Flags().StringVar(&f.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&f.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// apply copies explicitly set flags over the loaded configuration
func (f *httpFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("http-timeout") {
		cfg.HTTP.Timeout = f.timeout
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = f.userAgent
	}
	if flags.Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = f.maxBytes
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if f.insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if f.httpProxy != "" {
		cfg.HTTP.HTTPProxy = f.httpProxy
	}
	if f.httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = f.httpsProxy
	}
}

func (f *extractorFlags) apply(cfg *model.Config) error {
	if len(f.predicates) > 0 {
		cfg.Extractor.TypeIndexPredicates = f.predicates
	}
	if f.fanOut != "" {
		cfg.Extractor.FanOut = model.FanOut(f.fanOut)
	}
	if f.allTypes {
		cfg.Extractor.OnlyMatchingTypes = false
	}
	if cfg.Extractor.OnlyMatchingTypes && len(f.types) == 0 {
		return errors.New("no classes given: pass --type IRI or --all-types")
	}
	return cfg.Validate()
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	extractHTTP.apply(cmd, cfg)
	if err := extractQuery.apply(cfg); err != nil {
		return err
	}
	if extractJSON {
		cfg.Output.JSON = true
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, flushMetrics := runMetrics(cfg)

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Classes: extractQuery.types, Logger: log, Metrics: m})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Extracting: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Classes: %v (all: %v)\n", extractQuery.types, !cfg.Extractor.OnlyMatchingTypes)
		fmt.Fprintf(os.Stderr, "Fan-out: %s\n\n", cfg.Extractor.FanOut)
	}

	report, runErr := p.ExtractURL(ctx, args[0])
	if err := flushMetrics(); err != nil {
		log.Warn("metrics not written", logger.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("extract failed: %w", runErr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.Verbose)
	if cfg.Output.JSON {
		return renderer.RenderJSON(cmd.OutOrStdout(), report)
	}
	return renderer.RenderText(cmd.OutOrStdout(), report)
}
