// Package engine implements the core enrichment pipeline joining registry
// metadata and derived costs onto transaction rows.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/cost"
	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
)

// Engine orchestrates the enrichment of transaction batches.
type Engine struct {
	resolver       service.EntityResolver
	logger         *slog.Logger
	progressWriter io.Writer
	showProgress   bool
}

// Config holds configuration options for the enrichment engine.
type Config struct {
	ProgressWriter io.Writer
	ShowProgress   bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ShowProgress:   false,
		ProgressWriter: os.Stderr,
	}
}

// New creates an enrichment engine with the given resolver.
func New(resolver service.EntityResolver) *Engine {
	return NewWithConfig(resolver, DefaultConfig())
}

// NewWithConfig creates an enrichment engine with custom configuration.
func NewWithConfig(resolver service.EntityResolver, cfg Config) *Engine {
	if cfg.ProgressWriter == nil {
		cfg.ProgressWriter = os.Stderr
	}
	return &Engine{
		resolver:       resolver,
		logger:         slog.Default().With("component", "engine"),
		showProgress:   cfg.ShowProgress,
		progressWriter: cfg.ProgressWriter,
	}
}

// Enrich resolves entity metadata for every distinct LEI in the batch and
// joins it, plus the derived transaction cost, onto each row. The output
// has exactly one enriched row per input row, in input order. A lookup
// failure for one LEI degrades that LEI's rows to empty metadata; only a
// structurally missing lei column aborts the batch.
func (e *Engine) Enrich(ctx context.Context, batch *model.Batch) ([]model.EnrichedRow, *service.EnrichmentStats, error) {
	if !batch.HasColumn("lei") {
		return nil, nil, common.MissingColumn("lei")
	}

	start := time.Now()
	e.logger.Info("Starting enrichment", "rows", len(batch.Rows))

	uniqueLEIs := distinctLEIs(batch.Rows)
	e.logger.Info("Found unique LEI codes", "count", len(uniqueLEIs))

	stats := &service.EnrichmentStats{
		RowsProcessed: len(batch.Rows),
		UniqueLEIs:    len(uniqueLEIs),
	}

	entities, err := e.resolveAll(ctx, uniqueLEIs, stats)
	if err != nil {
		return nil, nil, err
	}

	enriched := make([]model.EnrichedRow, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		rec := entities[row.LEI]
		rowCost := cost.Calculate(rec.Country, row.Notional, row.Rate)

		enriched = append(enriched, model.EnrichedRow{
			TransactionRow:  row,
			LegalName:       rec.LegalName,
			BIC:             rec.BIC,
			TransactionCost: rowCost,
		})

		if rec.LegalName != "" {
			stats.WithLegalName++
		}
		if rec.BIC != "" {
			stats.WithBIC++
		}
		if rowCost != 0 {
			stats.WithCost++
		}
		stats.TotalCost += rowCost
	}

	stats.Duration = time.Since(start)
	e.logger.Info("Enrichment completed",
		"rows", len(enriched),
		"unique_leis", stats.UniqueLEIs,
		"failed_lookups", stats.FailedLookups,
		"duration", stats.Duration)

	return enriched, stats, nil
}

// resolveAll drives the resolver for each unique LEI, sequentially. A
// RegistryUnavailableError for one LEI substitutes an all-empty record
// for that LEI only.
func (e *Engine) resolveAll(ctx context.Context, leis []string, stats *service.EnrichmentStats) (map[string]model.EntityRecord, error) {
	var bar *progressbar.ProgressBar
	if e.showProgress && len(leis) > 0 {
		bar = progressbar.NewOptions(len(leis),
			progressbar.OptionSetWriter(e.progressWriter),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Resolving entities..."),
		)
	}

	entities := make(map[string]model.EntityRecord, len(leis))
	for i, lei := range leis {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		e.logger.Debug("Resolving LEI", "lei", lei, "index", i+1, "total", len(leis))

		rec, err := e.resolver.Resolve(ctx, lei)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			var unavailable *common.RegistryUnavailableError
			if errors.As(err, &unavailable) {
				e.logger.Error("Registry unavailable for LEI, substituting empty record",
					"lei", lei, "error", err)
			} else {
				e.logger.Error("Unexpected resolver failure, substituting empty record",
					"lei", lei, "error", err)
			}
			stats.FailedLookups++
			rec = model.EntityRecord{}
		}
		entities[lei] = rec

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return entities, nil
}

// distinctLEIs returns the distinct LEI codes across rows in first-seen
// order.
func distinctLEIs(rows []model.TransactionRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.LEI]; ok {
			continue
		}
		seen[row.LEI] = struct{}{}
		out = append(out, row.LEI)
	}
	return out
}
