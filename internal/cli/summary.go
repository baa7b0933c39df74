package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/lei-flow/internal/service"
)

// RenderSummary formats the outcome of an enrichment run for terminal
// display.
func RenderSummary(stats *service.EnrichmentStats) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Enrichment Summary"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Rows processed:        %d\n", stats.RowsProcessed))
	b.WriteString(fmt.Sprintf("  Unique LEIs:           %d\n", stats.UniqueLEIs))
	b.WriteString(fmt.Sprintf("  Rows with legal names: %d\n", stats.WithLegalName))
	b.WriteString(fmt.Sprintf("  Rows with BIC codes:   %d\n", stats.WithBIC))
	b.WriteString(fmt.Sprintf("  Rows with costs:       %d\n", stats.WithCost))
	b.WriteString(fmt.Sprintf("  Total cost:            %.2f\n", stats.TotalCost))

	if stats.FailedLookups > 0 {
		b.WriteString(WarningStyle.Render(
			fmt.Sprintf("  Failed lookups:        %d (rows degraded to empty metadata)", stats.FailedLookups)))
		b.WriteString("\n")
	}

	b.WriteString(SubtleStyle.Render(fmt.Sprintf("  Completed in %s", stats.Duration.Round(time.Millisecond))))
	b.WriteString("\n")

	return b.String()
}
