package cli

import (
	"fmt"
	"io"

	"github.com/ppiankov/ownfunds/internal/cache"
	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached extraction",
	Long: `Clear empties the disk layer under cache.dir. It runs even when
cache.enabled is false so that stale completions can be dropped before
caching is switched back on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return clearCache(cmd.OutOrStdout(), appConfig.Cache)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func clearCache(w io.Writer, cfg model.CacheConfig) error {
	if cfg.Dir == "" {
		fmt.Fprintln(w, "No cache directory configured; the memory cache lives only as long as the process")
		return nil
	}
	cfg.Enabled = true
	if err := cache.New(cfg).Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(w, "✓ Cleared %s\n", cfg.Dir)
	return nil
}
