package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// Format is an output file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// Column headings of the CSV verdict table.
const (
	ColumnID      = "gaiaedr3"
	ColumnVerdict = "is_polluted"
)

// ParseFormat resolves a format name. An empty name is inferred from the
// extension of path, defaulting to CSV.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jsonl", ".json", ".ndjson":
			return FormatJSONL, nil
		default:
			return FormatCSV, nil
		}
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatJSONL:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Writer handles output of classification results.
type Writer struct {
	file   *os.File
	format Format
	csv    *csv.Writer
	enc    *json.Encoder
}

// NewWriter creates a new output writer. An empty path or "-" writes to
// stdout.
func NewWriter(path string, format Format) (*Writer, error) {
	if path == "" || path == "-" {
		return newWriter(nil, os.Stdout, format)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w, err := newWriter(file, file, format)
	if err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func newWriter(file *os.File, out io.Writer, format Format) (*Writer, error) {
	w := &Writer{file: file, format: format}
	switch format {
	case FormatCSV:
		w.csv = csv.NewWriter(out)
		if err := w.csv.Write([]string{ColumnID, ColumnVerdict}); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	case FormatJSONL:
		w.enc = json.NewEncoder(out)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return w, nil
}

// WriteResult writes a single result.
func (w *Writer) WriteResult(r models.Result) error {
	if w.csv != nil {
		rec := []string{r.ID.String(), strconv.Itoa(r.Verdict.Code())}
		if err := w.csv.Write(rec); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteResults writes multiple results.
func (w *Writer) WriteResults(results []models.Result) error {
	for _, r := range results {
		if err := w.WriteResult(r); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered output and closes the output file if it was opened.
func (w *Writer) Close() error {
	if w.csv != nil {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			if w.file != nil {
				w.file.Close()
			}
			return fmt.Errorf("failed to flush output: %w", err)
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
