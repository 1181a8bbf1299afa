package output

import (
	"fmt"
	"io"
	"slices"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// verdictOrder is the display order of verdicts, strongest first.
var verdictOrder = []models.Verdict{models.Polluted, models.NotPolluted, models.Unknown}

// Summary represents the verdict distribution of a sample.
type Summary struct {
	Name      string                                        `json:"name,omitempty"`
	Total     int                                           `json:"total"`
	ByVerdict map[models.Verdict]int                        `json:"by_verdict"`
	ByCatalog map[models.CatalogName]map[models.Verdict]int `json:"by_catalog,omitempty"`
}

// GenerateSummary counts verdicts over results. Per-catalog counts are
// only collected from results that carry sources.
func GenerateSummary(name string, results []models.Result) Summary {
	summary := Summary{
		Name:      name,
		Total:     len(results),
		ByVerdict: make(map[models.Verdict]int),
	}

	for _, r := range results {
		summary.ByVerdict[r.Verdict]++

		for catalog, v := range r.Sources {
			if summary.ByCatalog == nil {
				summary.ByCatalog = make(map[models.CatalogName]map[models.Verdict]int)
			}
			if summary.ByCatalog[catalog] == nil {
				summary.ByCatalog[catalog] = make(map[models.Verdict]int)
			}
			summary.ByCatalog[catalog][v]++
		}
	}

	return summary
}

// PrintSummary prints a summary to the given writer.
func PrintSummary(w io.Writer, summary Summary) {
	title := "Classification Summary"
	if summary.Name != "" {
		title = summary.Name
	}
	fmt.Fprintf(w, "=== %s ===\n\n", title)
	fmt.Fprintf(w, "Total Objects: %d\n\n", summary.Total)

	fmt.Fprintf(w, "Verdict Distribution:\n")
	for _, v := range verdictOrder {
		count := summary.ByVerdict[v]
		fmt.Fprintf(w, "  %-13s %7d (%5.1f%%)\n", v.String()+":", count, percent(count, summary.Total))
	}
	fmt.Fprintf(w, "\n")

	if len(summary.ByCatalog) == 0 {
		return
	}

	catalogs := make([]models.CatalogName, 0, len(summary.ByCatalog))
	for c := range summary.ByCatalog {
		catalogs = append(catalogs, c)
	}
	slices.Sort(catalogs)

	fmt.Fprintf(w, "Per-Catalog Verdicts:\n")
	for _, c := range catalogs {
		counts := summary.ByCatalog[c]
		fmt.Fprintf(w, "  %-9s", string(c)+":")
		for _, v := range verdictOrder {
			fmt.Fprintf(w, " %s=%d", v, counts[v])
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "\n")
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(n) / float64(total)
}
