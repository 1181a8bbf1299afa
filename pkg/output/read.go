package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// LoadResults reads a results file written by Writer.
func LoadResults(path string, format Format) ([]models.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadResults(file, format)
}

// ReadResults reads results in the given format.
func ReadResults(r io.Reader, format Format) ([]models.Result, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSONL:
		return readJSONL(r)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func readCSV(r io.Reader) ([]models.Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if head[0] != ColumnID || head[1] != ColumnVerdict {
		return nil, fmt.Errorf("unexpected header %q", head)
	}

	var results []models.Result
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		id, err := models.ParseID(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		code, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid verdict %q", line, rec[1])
		}
		v, err := models.VerdictFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		results = append(results, models.Result{ID: id, Verdict: v})
	}
}

func readJSONL(r io.Reader) ([]models.Result, error) {
	var results []models.Result
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large lines.
	const maxCapacity = 1024 * 1024 // 1MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var res models.Result
		if err := json.Unmarshal(line, &res); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		results = append(results, res)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
