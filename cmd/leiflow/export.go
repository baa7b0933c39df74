package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/lei-flow/internal/csvio"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
	"github.com/Veraticus/lei-flow/internal/sheets"
)

func exportCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an enriched transaction file to Google Sheets",
		Long: `Pushes a previously enriched file to a Google Sheets spreadsheet.
Authentication comes from LEIFLOW_SHEETS_* environment variables
(service account path, or OAuth2 client and refresh token).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg := sheets.DefaultConfig()
			if err := cfg.LoadFromEnv(); err != nil {
				return err
			}

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			batch, err := csvio.ReadBatch(in)
			_ = in.Close()
			if err != nil {
				return err
			}

			columns, rows, stats := splitEnrichedBatch(batch)

			writer, err := sheets.NewWriter(ctx, cfg, slog.Default().With("component", "sheets"))
			if err != nil {
				return err
			}

			return writer.Write(ctx, columns, rows, stats)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "enriched transaction file (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// splitEnrichedBatch reconstructs enriched rows from a file written by
// the enrich command, separating the enrichment columns from the
// pass-through ones.
func splitEnrichedBatch(batch *model.Batch) ([]string, []model.EnrichedRow, *service.EnrichmentStats) {
	enrichmentCols := map[string]bool{
		csvio.ColumnLegalName:       true,
		csvio.ColumnBIC:             true,
		csvio.ColumnTransactionCost: true,
	}

	columns := make([]string, 0, len(batch.Columns))
	for _, col := range batch.Columns {
		if !enrichmentCols[col] {
			columns = append(columns, col)
		}
	}

	stats := &service.EnrichmentStats{RowsProcessed: len(batch.Rows)}
	seen := make(map[string]struct{})

	rows := make([]model.EnrichedRow, 0, len(batch.Rows))
	for _, r := range batch.Rows {
		costValue, _ := strconv.ParseFloat(r.Raw[csvio.ColumnTransactionCost], 64)
		row := model.EnrichedRow{
			TransactionRow:  r,
			LegalName:       r.Raw[csvio.ColumnLegalName],
			BIC:             r.Raw[csvio.ColumnBIC],
			TransactionCost: costValue,
		}
		rows = append(rows, row)

		if _, ok := seen[r.LEI]; !ok {
			seen[r.LEI] = struct{}{}
			stats.UniqueLEIs++
		}
		if row.LegalName != "" {
			stats.WithLegalName++
		}
		if row.BIC != "" {
			stats.WithBIC++
		}
		if row.TransactionCost != 0 {
			stats.WithCost++
		}
		stats.TotalCost += row.TransactionCost
	}

	return columns, rows, stats
}
