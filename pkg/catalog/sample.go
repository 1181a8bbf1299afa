package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// ReadIDs reads the working sample. With a column name the input is a CSV
// table and the identifiers are taken from that column; without one the
// input holds one identifier per line, with blank lines and '#' comments
// skipped. Duplicates are kept in input order.
func ReadIDs(r io.Reader, column string) ([]models.ID, error) {
	if column != "" {
		return ReadSample(r, SampleSpec{IDColumn: column})
	}

	var ids []models.ID
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := models.ParseID(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SampleSpec describes a reference sample of candidate objects from
// previous work. IDColumn defaults to the first column. When LabelColumn is
// set, a row is kept only if its label contains Contains and, when Equals is
// set, equals Equals after trimming spaces.
type SampleSpec struct {
	IDColumn    string
	LabelColumn string
	Contains    string
	Equals      string
}

// ReadSample reads the identifiers of a reference sample selected by sel.
func ReadSample(r io.Reader, sel SampleSpec) ([]models.ID, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	idx, err := t.column(sel.IDColumn)
	if err != nil {
		return nil, err
	}
	lbx := -1
	if sel.LabelColumn != "" {
		if lbx, err = t.column(sel.LabelColumn); err != nil {
			return nil, err
		}
	}

	var ids []models.ID
	err = t.each(func(line int, cell func(int) string) error {
		if lbx >= 0 && !sel.keep(cell(lbx)) {
			return nil
		}
		raw := cell(idx)
		if raw == "" {
			return nil
		}
		id, err := parseRowID(line, raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s SampleSpec) keep(label string) bool {
	if !strings.Contains(label, s.Contains) {
		return false
	}
	return s.Equals == "" || label == s.Equals
}
