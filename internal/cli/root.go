package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/metrics"
	"github.com/ppiankov/typeindex/internal/model"
)

// Version is stamped at build time with -ldflags "-X github.com/ppiankov/typeindex/internal/cli.Version=..."
var Version = "v0.1.0-dev"

var (
	cfgFile     string
	verbose     bool
	logLevel    string
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "typeindex",
	Short: "typeindex - follow Solid type indexes to the documents a query needs",
	Long: `typeindex reads the RDF of a seed document (typically a WebID profile),
finds the Solid type index documents it declares, and lists the instance
documents registered for the RDF classes you ask about.

It is the link-discovery step of a link-traversal query engine, usable on
its own to explore which documents a pod exposes for a given class.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "typeindex %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.typeindex/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file on exit")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output.metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and TYPEINDEX_* environment variables
func initConfig() {
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".typeindex"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TYPEINDEX_HTTP_TIMEOUT overrides http.timeout
	viper.SetEnvPrefix("TYPEINDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every leaf of cfg as a viper default so env vars can reach it
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	flatten("", tree, func(key string, val any) { v.SetDefault(key, val) })
	return nil
}

func flatten(prefix string, tree map[string]any, set func(string, any)) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, val)
	}
}

// loadConfig resolves the effective configuration: flags > env > file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
}

// runMetrics returns a fresh registry when a metrics file is configured, and a function writing it out
func runMetrics(cfg *model.Config) (*metrics.Metrics, func() error) {
	if cfg.Output.MetricsFile == "" {
		return nil, func() error { return nil }
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return m, func() error {
		if err := metrics.WriteTextfile(cfg.Output.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	}
}
