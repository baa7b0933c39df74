package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/lei-flow/internal/model"
)

// WriteBatch writes enriched rows as a delimited file. The output keeps
// the input's column order and row count, then appends legalName, bic
// and transactionCost. The entity country never appears: it is a
// derivation input, not an output column.
func WriteBatch(w io.Writer, columns []string, rows []model.EnrichedRow) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(columns)+3)
	header = append(header, columns...)
	header = append(header, ColumnLegalName, ColumnBIC, ColumnTransactionCost)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, col := range columns {
			record = append(record, cellValue(row, col))
		}
		record = append(record,
			row.LegalName,
			row.BIC,
			formatNumeric(row.TransactionCost))

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// cellValue prefers the original raw cell so pass-through columns are
// untouched; rows built programmatically fall back to the typed fields.
func cellValue(row model.EnrichedRow, column string) string {
	if v, ok := row.Raw[column]; ok {
		return v
	}
	switch column {
	case ColumnLEI:
		return row.LEI
	case ColumnNotional:
		return formatNumeric(row.Notional)
	case ColumnRate:
		return formatNumeric(row.Rate)
	}
	return ""
}

func formatNumeric(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
