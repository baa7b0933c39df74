package model

// TransactionRow represents a single transaction as read from a batch input.
// Rows are immutable once read; enrichment produces new EnrichedRow values
// and never writes back into the input.
type TransactionRow struct {
	// Raw holds every column's original value keyed by header name, so
	// pass-through columns survive to the output byte for byte.
	Raw      map[string]string
	LEI      string
	Notional float64
	Rate     float64
}

// Batch is a parsed batch input: the rows plus the original column order,
// which is preserved through to the output.
type Batch struct {
	Columns []string
	Rows    []TransactionRow
}

// HasColumn reports whether the batch input carried the named column.
func (b *Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnrichedRow is a TransactionRow joined with registry metadata and the
// derived transaction cost. The entity's country is a derivation input
// only and is deliberately absent.
type EnrichedRow struct {
	TransactionRow
	LegalName       string
	BIC             string
	TransactionCost float64
}
