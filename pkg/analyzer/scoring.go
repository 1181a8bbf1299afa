package analyzer

import "github.com/rg0now/wd-pollution-survey/pkg/models"

// Combine merges per-catalog verdicts under the dominance order
// Polluted > NotPolluted > Unknown: one positive detection outweighs any
// number of negative or inconclusive ones, and one explicit negative
// outweighs any number of inconclusive ones.
func Combine(verdicts ...models.Verdict) models.Verdict {
	return models.MaxVerdict(verdicts...)
}
