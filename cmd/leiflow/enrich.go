package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/lei-flow/internal/cache"
	"github.com/Veraticus/lei-flow/internal/cli"
	"github.com/Veraticus/lei-flow/internal/csvio"
	"github.com/Veraticus/lei-flow/internal/engine"
	"github.com/Veraticus/lei-flow/internal/registry"
)

func enrichCmd() *cobra.Command {
	var (
		inputPath    string
		outputPath   string
		showProgress bool
		noCacheSave  bool
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich a transaction file with legal-entity metadata and costs",
		Long: `Reads a delimited transaction file, resolves legal-entity metadata for
every distinct LEI code (cache first, registry on miss), derives
per-row transaction costs, and writes the enriched file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openCacheStore(ctx)
			if err != nil {
				return fmt.Errorf("failed to open cache store: %w", err)
			}
			defer func() { _ = store.Close() }()

			entityCache := cache.New()
			loadCacheOrWarn(ctx, entityCache, store)

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			batch, err := csvio.ReadBatch(in)
			_ = in.Close()
			if err != nil {
				return err
			}

			client := registry.NewClient(registryConfig(), entityCache)
			eng := engine.NewWithConfig(client, engine.Config{
				ShowProgress:   showProgress,
				ProgressWriter: os.Stderr,
			})

			enriched, stats, err := eng.Enrich(ctx, batch)
			if err != nil {
				return err
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			if err := csvio.WriteBatch(out, batch.Columns, enriched); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			// Persist lookups for future runs. A failed save is logged,
			// never fatal: the output file is already written.
			if !noCacheSave {
				if err := entityCache.Save(ctx, store); err != nil {
					slog.Error("Failed to save cache", "error", err)
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSummary(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input transaction file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for enriched rows (required)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar while resolving entities")
	cmd.Flags().BoolVar(&noCacheSave, "no-cache-save", false, "skip persisting resolved entities")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
