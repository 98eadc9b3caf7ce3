package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/genome-nav/internal/store"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the DuckDB cache",
		Long:  "Show entry counts of the cache at cache.path, or drop entries from it.",
		Example: `  genome-nav cache
  genome-nav cache invalidate hg38
  genome-nav cache clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(st *store.Store) error {
				stats, err := st.Stats()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n  assemblies:  %d\n  chromosomes: %d\n  genes:       %d\n",
					st.Path(), stats.Assemblies, stats.Chromosomes, stats.Genes)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(st *store.Store) error {
				if err := st.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "invalidate <assembly>",
		Short: "Drop the cached chromosome list of an assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(a, func(st *store.Store) error {
				if err := st.InvalidateAssembly(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

// withStore opens the configured cache, or reuses the one already open
// when caching is enabled.
func withStore(a *app, fn func(*store.Store) error) error {
	if a.store != nil {
		return fn(a.store)
	}
	st, err := store.Open(a.cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer st.Close()
	return fn(st)
}
