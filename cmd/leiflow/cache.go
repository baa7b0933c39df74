package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/lei-flow/internal/cli"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/storage"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the persisted LEI cache",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())

	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show persisted cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openCacheStore(ctx)
			if err != nil {
				return fmt.Errorf("failed to open cache store: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Load(ctx)
			if err != nil {
				return err
			}

			resolved := 0
			for _, rec := range entries {
				if !rec.IsEmpty() {
					resolved++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render("LEI Cache"))
			fmt.Fprintf(out, "  Entries:           %d\n", len(entries))
			fmt.Fprintf(out, "  With entity data:  %d\n", resolved)
			fmt.Fprintf(out, "  Resolved as empty: %d\n", len(entries)-resolved)
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted cache entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openCacheStore(ctx)
			if err != nil {
				return fmt.Errorf("failed to open cache store: %w", err)
			}
			defer func() { _ = store.Close() }()

			// The JSON store has no delete primitive; overwriting with an
			// empty mapping is equivalent. The SQLite store truncates.
			switch s := store.(type) {
			case *storage.SQLiteStore:
				err = s.Clear(ctx)
			default:
				err = store.Save(ctx, map[string]model.EntityRecord{})
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Cache cleared"))
			return nil
		},
	}
}
