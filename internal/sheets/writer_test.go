package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/lei-flow/internal/model"
	"github.com/Veraticus/lei-flow/internal/service"
)

func TestPrepareExportData(t *testing.T) {
	columns := []string{"lei", "notional", "rate"}
	rows := []model.EnrichedRow{
		{
			TransactionRow: model.TransactionRow{
				Raw: map[string]string{"lei": "LEI1", "notional": "1000", "rate": "1.05"},
			},
			LegalName:       "Acme Holdings PLC",
			BIC:             "ACMEGB2L",
			TransactionCost: 50.0,
		},
	}
	stats := &service.EnrichmentStats{RowsProcessed: 1, UniqueLEIs: 1, TotalCost: 50.0}

	values := prepareExportData(columns, rows, stats)

	// Summary block, blank separator, header, then one row per transaction.
	require.Len(t, values, 9)
	assert.Equal(t, "LEI Enrichment Report", values[0][0])
	assert.Equal(t, []any{"Rows processed", 1}, values[2])

	header := values[7]
	assert.Equal(t, []any{"lei", "notional", "rate", "legalName", "bic", "transactionCost"}, header)

	row := values[8]
	assert.Equal(t, []any{"LEI1", "1000", "1.05", "Acme Holdings PLC", "ACMEGB2L", 50.0}, row)
}

func TestPrepareExportDataEmptyBatch(t *testing.T) {
	values := prepareExportData([]string{"lei", "notional", "rate"}, nil, &service.EnrichmentStats{})
	require.Len(t, values, 8)
}
