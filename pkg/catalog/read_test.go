package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

func TestReadSpectralClasses(t *testing.T) {
	input := "GaiaEDR3,specClass\n" +
		"1,DAZ\n" +
		"2,DA\n" +
		"1,DB\n" + // duplicate, first row wins
		",DC\n" + // no identifier
		"3.0,UNKN\n"

	labels, err := catalog.ReadSpectralClasses(strings.NewReader(input), catalog.GF21SDSSColumns)
	if err != nil {
		t.Fatalf("ReadSpectralClasses() error = %v", err)
	}
	if labels.Name() != models.CatalogGF21SDSS {
		t.Errorf("Name() = %s, want %s", labels.Name(), models.CatalogGF21SDSS)
	}
	if labels.Len() != 3 {
		t.Errorf("Len() = %d, want 3", labels.Len())
	}

	want := map[models.ID]string{1: "DAZ", 2: "DA", 3: "UNKN"}
	for id, l := range want {
		got, ok := labels.Label(id)
		if !ok || got != l {
			t.Errorf("Label(%s) = %q, %v, want %q", id, got, ok, l)
		}
	}
	if _, ok := labels.Label(4); ok {
		t.Error("Label(4) found, want absent")
	}
}

func TestReadSpectralClassesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"missing label", "GaiaEDR3,specClass\n1,\n", catalog.ErrMissingLabel},
		{"bad id", "GaiaEDR3,specClass\nx1,DA\n", models.ErrInvalidID},
		{"fractional id", "GaiaEDR3,specClass\n1.5,DA\n", models.ErrInvalidID},
		{"missing column", "source_id,specClass\n1,DA\n", catalog.ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.ReadSpectralClasses(strings.NewReader(tt.input), catalog.GF21SDSSColumns)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadSpectralClasses() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadSpectralClassesEmpty(t *testing.T) {
	if _, err := catalog.ReadSpectralClasses(strings.NewReader(""), catalog.GF21SDSSColumns); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestReadSpectralTypes(t *testing.T) {
	input := "\ufeffgaiaedr3,spectype\n" +
		"10.0,DZ\n" +
		"11.0,\n" + // unlabelled first row
		"11.0,DA\n" + // later duplicate does not replace it
		"12.0,DB\n" +
		"12.0,DZ\n" +
		",DQ\n"

	labels, err := catalog.ReadSpectralTypes(strings.NewReader(input), catalog.MWDDColumns)
	if err != nil {
		t.Fatalf("ReadSpectralTypes() error = %v", err)
	}
	if labels.Len() != 2 {
		t.Errorf("Len() = %d, want 2", labels.Len())
	}
	if l, _ := labels.Label(10); l != "DZ" {
		t.Errorf("Label(10) = %q, want DZ", l)
	}
	if _, ok := labels.Label(11); ok {
		t.Error("Label(11) found, want dropped")
	}
	if l, _ := labels.Label(12); l != "DB" {
		t.Errorf("Label(12) = %q, want DB", l)
	}
}

func TestReadMembership(t *testing.T) {
	input := ",Gaia_designation\n" +
		"0,Gaia DR3 100\n" +
		"1,Gaia DR3 200\n" +
		"2,Gaia DR3 100\n" +
		"3,WD 0000+00\n" +
		"4,Gaia DR2 300\n" +
		"5,\n"

	m, err := catalog.ReadMembership(strings.NewReader(input), catalog.PEWDDColumns)
	if err != nil {
		t.Fatalf("ReadMembership() error = %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	for _, id := range []models.ID{100, 200} {
		if !m.Contains(id) {
			t.Errorf("Contains(%s) = false, want true", id)
		}
	}
	if m.Contains(300) {
		t.Error("Contains(300) = true, want DR2 designation skipped")
	}
}

func TestNilCatalogs(t *testing.T) {
	var l *catalog.Labels
	if _, ok := l.Label(1); ok || l.Len() != 0 {
		t.Error("nil Labels should be empty")
	}
	var m *catalog.Membership
	if m.Contains(1) || m.Len() != 0 {
		t.Error("nil Membership should be empty")
	}
}

func TestNewLabels(t *testing.T) {
	l, err := catalog.NewLabels(models.CatalogMWDD, map[models.ID]string{1: "DZ"})
	if err != nil {
		t.Fatalf("NewLabels() error = %v", err)
	}
	if got, _ := l.Label(1); got != "DZ" {
		t.Errorf("Label(1) = %q, want DZ", got)
	}

	_, err = catalog.NewLabels(models.CatalogMWDD, map[models.ID]string{1: ""})
	if !errors.Is(err, catalog.ErrMissingLabel) {
		t.Errorf("NewLabels() error = %v, want ErrMissingLabel", err)
	}
}

func TestLoadSet(t *testing.T) {
	ar, err := txtar.ParseFile(filepath.Join("testdata", "catalogs.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	for _, f := range ar.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src := catalog.Sources{
		GF21SDSS: catalog.Source{Path: filepath.Join(dir, "gf21_sdss.csv"), Columns: catalog.GF21SDSSColumns},
		MWDD:     catalog.Source{Path: filepath.Join(dir, "mwdd.csv"), Columns: catalog.MWDDColumns},
		PEWDD:    catalog.Source{Path: filepath.Join(dir, "pewdd.csv"), Columns: catalog.PEWDDColumns},
	}
	set, err := catalog.LoadSet(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("LoadSet() error = %v", err)
	}
	if got := set.GF21SDSS.Len(); got != 5 {
		t.Errorf("GF21SDSS.Len() = %d, want 5", got)
	}
	if got := set.MWDD.Len(); got != 8 {
		t.Errorf("MWDD.Len() = %d, want 8", got)
	}
	if got := set.PEWDD.Len(); got != 2 {
		t.Errorf("PEWDD.Len() = %d, want 2", got)
	}

	// An unset path leaves the catalog empty.
	src.PEWDD.Path = ""
	set, err = catalog.LoadSet(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("LoadSet() error = %v", err)
	}
	if set.PEWDD.Contains(3001) {
		t.Error("PEWDD should be empty without a path")
	}

	// A missing file fails the whole set.
	src.MWDD.Path = filepath.Join(dir, "missing.csv")
	if _, err := catalog.LoadSet(context.Background(), src, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadSet() error = %v, want os.ErrNotExist", err)
	}
}
