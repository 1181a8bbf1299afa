package analyzer

import (
	"fmt"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// Classify returns the combined verdict for id. Catalogs are consulted in
// priority order and the first Polluted answer ends the search; the result
// is the same as Combine over all catalogs.
func (a *Analyzer) Classify(id models.ID) models.Verdict {
	best := models.Unknown
	for _, l := range a.lookups {
		v := l.Lookup(id)
		if v == models.Polluted {
			return v
		}
		best = Combine(best, v)
	}
	return best
}

// ClassifyKey classifies an identifier given in string form, such as a
// command-line argument or a float-formatted table key. An unparseable key
// is an error, never an Unknown verdict.
func (a *Analyzer) ClassifyKey(key string) (models.Verdict, error) {
	id, err := models.ParseID(key)
	if err != nil {
		return models.Unknown, fmt.Errorf("failed to classify: %w", err)
	}
	return a.Classify(id), nil
}

// Explain consults every catalog and returns the per-catalog verdicts
// along with the combined one.
func (a *Analyzer) Explain(id models.ID) models.Result {
	sources := make(map[models.CatalogName]models.Verdict, len(a.lookups))
	verdicts := make([]models.Verdict, 0, len(a.lookups))
	for _, l := range a.lookups {
		v := l.Lookup(id)
		sources[l.Catalog()] = v
		verdicts = append(verdicts, v)
	}

	return models.Result{
		ID:      id,
		Verdict: Combine(verdicts...),
		Sources: sources,
	}
}
