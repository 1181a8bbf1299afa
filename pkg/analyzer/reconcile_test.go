package analyzer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rg0now/wd-pollution-survey/pkg/analyzer"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

var allVerdicts = []models.Verdict{models.Unknown, models.NotPolluted, models.Polluted}

// fixedLookup answers every query with the same verdict and counts calls.
type fixedLookup struct {
	name    models.CatalogName
	verdict models.Verdict
	calls   int
}

func (f *fixedLookup) Catalog() models.CatalogName { return f.name }

func (f *fixedLookup) Lookup(models.ID) models.Verdict {
	f.calls++
	return f.verdict
}

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Verdict
		want models.Verdict
	}{
		{"none", nil, models.Unknown},
		{"all unknown", []models.Verdict{models.Unknown, models.Unknown, models.Unknown}, models.Unknown},
		{"one negative", []models.Verdict{models.Unknown, models.NotPolluted, models.Unknown}, models.NotPolluted},
		{"positive over negative", []models.Verdict{models.NotPolluted, models.Polluted, models.NotPolluted}, models.Polluted},
		{"positive last", []models.Verdict{models.Unknown, models.Unknown, models.Polluted}, models.Polluted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.Combine(tt.in...); got != tt.want {
				t.Errorf("Combine(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestCombineLaws(t *testing.T) {
	for _, a := range allVerdicts {
		if got := analyzer.Combine(a, a); got != a {
			t.Errorf("Combine(%s, %s) = %s, not idempotent", a, a, got)
		}
		for _, b := range allVerdicts {
			if analyzer.Combine(a, b) != analyzer.Combine(b, a) {
				t.Errorf("Combine(%s, %s) is not commutative", a, b)
			}
			for _, c := range allVerdicts {
				left := analyzer.Combine(analyzer.Combine(a, b), c)
				right := analyzer.Combine(a, analyzer.Combine(b, c))
				if left != right {
					t.Errorf("Combine over (%s, %s, %s) is not associative", a, b, c)
				}
			}
		}
	}
}

func TestClassifyMatchesCombine(t *testing.T) {
	// Every assignment of verdicts to the three catalogs.
	for _, mwdd := range allVerdicts {
		for _, gf21 := range allVerdicts {
			for _, pewdd := range allVerdicts {
				name := fmt.Sprintf("%s/%s/%s", mwdd, gf21, pewdd)
				t.Run(name, func(t *testing.T) {
					lookups := []*fixedLookup{
						{name: models.CatalogMWDD, verdict: mwdd},
						{name: models.CatalogGF21SDSS, verdict: gf21},
						{name: models.CatalogPEWDD, verdict: pewdd},
					}
					a := analyzer.NewAnalyzerWithLookups(nil, lookups[0], lookups[1], lookups[2])

					want := analyzer.Combine(mwdd, gf21, pewdd)
					if got := a.Classify(1); got != want {
						t.Errorf("Classify() = %s, want %s", got, want)
					}

					// Nothing after the first Polluted answer is consulted.
					stop := len(lookups)
					for i, l := range lookups {
						if l.verdict == models.Polluted {
							stop = i + 1
							break
						}
					}
					for i, l := range lookups {
						wantCalls := 0
						if i < stop {
							wantCalls = 1
						}
						if l.calls != wantCalls {
							t.Errorf("%s consulted %d times, want %d", l.name, l.calls, wantCalls)
						}
					}
				})
			}
		}
	}
}

func TestClassifyKey(t *testing.T) {
	polluted := &fixedLookup{name: models.CatalogPEWDD, verdict: models.Polluted}
	a := analyzer.NewAnalyzerWithLookups(nil, polluted)

	for _, key := range []string{"12345", "12345.0", " 12345 "} {
		v, err := a.ClassifyKey(key)
		if err != nil {
			t.Errorf("ClassifyKey(%q) error = %v", key, err)
			continue
		}
		if v != models.Polluted {
			t.Errorf("ClassifyKey(%q) = %s, want polluted", key, v)
		}
	}

	for _, key := range []string{"", "abc", "12345.5", "-3"} {
		if _, err := a.ClassifyKey(key); !errors.Is(err, models.ErrInvalidID) {
			t.Errorf("ClassifyKey(%q) error = %v, want ErrInvalidID", key, err)
		}
	}
}
