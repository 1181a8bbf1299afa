package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
	"github.com/rg0now/wd-pollution-survey/pkg/output"
)

func TestGenerateSummary(t *testing.T) {
	results := sampleResults()
	results = append(results, models.Result{ID: 1003, Verdict: models.Polluted})

	s := output.GenerateSummary("xp", results)
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.ByVerdict[models.Polluted] != 2 || s.ByVerdict[models.NotPolluted] != 1 || s.ByVerdict[models.Unknown] != 1 {
		t.Errorf("ByVerdict = %v", s.ByVerdict)
	}
	if s.ByCatalog != nil {
		t.Errorf("ByCatalog = %v, want nil without sources", s.ByCatalog)
	}
}

func TestPrintSummary(t *testing.T) {
	results := []models.Result{
		{ID: 1, Verdict: models.Polluted, Sources: map[models.CatalogName]models.Verdict{
			models.CatalogPEWDD: models.Polluted,
			models.CatalogMWDD:  models.Unknown,
		}},
		{ID: 2, Verdict: models.Unknown, Sources: map[models.CatalogName]models.Verdict{
			models.CatalogPEWDD: models.Unknown,
			models.CatalogMWDD:  models.Unknown,
		}},
	}

	var buf bytes.Buffer
	output.PrintSummary(&buf, output.GenerateSummary("", results))
	out := buf.String()

	for _, want := range []string{
		"=== Classification Summary ===",
		"Total Objects: 2",
		"polluted:",
		"( 50.0%)",
		"Per-Catalog Verdicts:",
		"mwdd:     polluted=0 not_polluted=0 unknown=2",
		"pewdd:    polluted=1 not_polluted=0 unknown=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "mwdd:") > strings.Index(out, "pewdd:") {
		t.Error("catalogs not sorted by name")
	}
}

func TestPrintSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	output.PrintSummary(&buf, output.GenerateSummary("empty", nil))
	if !strings.Contains(buf.String(), "unknown:") || !strings.Contains(buf.String(), "(  0.0%)") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}
