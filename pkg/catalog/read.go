package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// Columns selects the CSV columns that hold the identifier and the label.
// Prefix, when set, must lead every identifier that is kept; it is stripped
// before parsing.
type Columns struct {
	ID     string
	Label  string
	Prefix string
}

// Default column layouts of the published tables.
var (
	GF21SDSSColumns = Columns{ID: "GaiaEDR3", Label: "specClass"}
	MWDDColumns     = Columns{ID: "gaiaedr3", Label: "spectype"}
	PEWDDColumns    = Columns{ID: "Gaia_designation", Prefix: "Gaia DR3 "}
)

// table streams the rows of a header-addressed CSV file.
type table struct {
	r      *csv.Reader
	header map[string]int
}

func newTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty table")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(head))
	for i, name := range head {
		// Spreadsheet exports may lead with a byte order mark.
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.TrimSpace(name)] = i
	}
	return &table{r: cr, header: header}, nil
}

// column returns the index of name. An empty name selects the first column.
func (t *table) column(name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	i, ok := t.header[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return i, nil
}

// each calls fn with the line number and a cell getter for every row.
func (t *table) each(fn func(line int, cell func(int) string) error) error {
	for {
		rec, err := t.r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := t.r.FieldPos(0)
		cell := func(i int) string {
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if err := fn(line, cell); err != nil {
			return err
		}
	}
}

// parseRowID parses the identifier of a row, naming the line on failure.
func parseRowID(line int, raw string) (models.ID, error) {
	id, err := models.ParseID(raw)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", line, err)
	}
	return id, nil
}

// ReadSpectralClasses reads the GF21 x SDSS spectral classification table.
// Rows without an identifier are skipped, the first row of a duplicated
// identifier wins, and an identified row without a label is an error.
func ReadSpectralClasses(r io.Reader, cols Columns) (*Labels, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	idx, err := t.column(cols.ID)
	if err != nil {
		return nil, err
	}
	lbx, err := t.column(cols.Label)
	if err != nil {
		return nil, err
	}

	labels := make(map[models.ID]string)
	err = t.each(func(line int, cell func(int) string) error {
		raw := cell(idx)
		if raw == "" {
			return nil
		}
		id, err := parseRowID(line, raw)
		if err != nil {
			return err
		}
		if _, seen := labels[id]; seen {
			return nil
		}
		label := cell(lbx)
		if label == "" {
			return fmt.Errorf("line %d: %w: %s", line, ErrMissingLabel, id)
		}
		labels[id] = label
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Labels{name: models.CatalogGF21SDSS, labels: labels}, nil
}

// ReadSpectralTypes reads the MWDD spectral type table. Duplicates are
// removed first (first row wins) and rows without a label are dropped
// afterwards, so a later labelled duplicate does not replace an unlabelled
// first row.
func ReadSpectralTypes(r io.Reader, cols Columns) (*Labels, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	idx, err := t.column(cols.ID)
	if err != nil {
		return nil, err
	}
	lbx, err := t.column(cols.Label)
	if err != nil {
		return nil, err
	}

	seen := make(map[models.ID]struct{})
	labels := make(map[models.ID]string)
	err = t.each(func(line int, cell func(int) string) error {
		raw := cell(idx)
		if raw == "" {
			return nil
		}
		id, err := parseRowID(line, raw)
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return nil
		}
		seen[id] = struct{}{}
		if label := cell(lbx); label != "" {
			labels[id] = label
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Labels{name: models.CatalogMWDD, labels: labels}, nil
}

// ReadMembership reads the PEWDD table. Only designations carrying
// cols.Prefix are kept; the prefix is stripped before parsing.
func ReadMembership(r io.Reader, cols Columns) (*Membership, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	idx, err := t.column(cols.ID)
	if err != nil {
		return nil, err
	}

	var ids []models.ID
	err = t.each(func(line int, cell func(int) string) error {
		rest, ok := strings.CutPrefix(cell(idx), cols.Prefix)
		if !ok || rest == "" {
			return nil
		}
		id, err := parseRowID(line, rest)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewMembership(models.CatalogPEWDD, ids), nil
}
