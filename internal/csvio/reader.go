// Package csvio reads and writes transaction batches as delimited files.
// It is plumbing around the enrichment core: all schema decisions (which
// columns are required, what happens on bad numerics) are made here so
// the engine only ever sees typed rows.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/Veraticus/lei-flow/internal/common"
	"github.com/Veraticus/lei-flow/internal/model"
)

// Required input columns.
const (
	ColumnLEI      = "lei"
	ColumnNotional = "notional"
	ColumnRate     = "rate"
)

// Enrichment output columns appended to the input schema.
const (
	ColumnLegalName       = "legalName"
	ColumnBIC             = "bic"
	ColumnTransactionCost = "transactionCost"
)

// ReadBatch parses a delimited input into a batch. The header must
// contain the lei, notional and rate columns; a missing required column
// is an ErrMissingColumn surfaced before any enrichment work happens.
// Unparseable numerics degrade to zero with a warning rather than
// failing the batch.
func ReadBatch(r io.Reader) (*model.Batch, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty: %w", common.MissingColumn(ColumnLEI))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range []string{ColumnLEI, ColumnNotional, ColumnRate} {
		if _, ok := idx[required]; !ok {
			return nil, common.MissingColumn(required)
		}
	}

	batch := &model.Batch{Columns: header}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		line++

		raw := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				raw[name] = record[i]
			}
		}

		batch.Rows = append(batch.Rows, model.TransactionRow{
			Raw:      raw,
			LEI:      raw[ColumnLEI],
			Notional: parseNumeric(raw[ColumnNotional], ColumnNotional, line),
			Rate:     parseNumeric(raw[ColumnRate], ColumnRate, line),
		})
	}

	return batch, nil
}

// parseNumeric converts a cell to float64, degrading to zero on bad
// input so one malformed cell never aborts the batch.
func parseNumeric(value, column string, line int) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Unparseable numeric cell, using 0",
			"column", column, "line", line, "value", value)
		return 0
	}
	return f
}
