package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/typeindex/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the dereference cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached document",
	Long: `Clear removes the on-disk document cache configured under cache.dir
(TYPEINDEX_CACHE_DIR), so the next run fetches every document fresh.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Cache.Dir == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No cache directory configured")
			return nil
		}

		// A cache disabled for fetching can still hold documents from earlier runs
		cacheCfg := cfg.Cache
		cacheCfg.Enabled = true
		if err := cache.New(cacheCfg).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
