package catalog_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

func TestReadIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		column  string
		want    []models.ID
		wantErr bool
	}{
		{
			name:  "one per line",
			input: "# xp sample\n1\n\n2.0\n  3  \n1\n",
			want:  []models.ID{1, 2, 3, 1},
		},
		{
			name:   "csv column",
			input:  "ra,source_id\n10.5,7\n11.5,8\n",
			column: "source_id",
			want:   []models.ID{7, 8},
		},
		{
			name:    "bad line",
			input:   "1\nnope\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.ReadIDs(strings.NewReader(tt.input), tt.column)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("ReadIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadIDsLineNumber(t *testing.T) {
	_, err := catalog.ReadIDs(strings.NewReader("1\n2\nx\n"), "")
	if !errors.Is(err, models.ErrInvalidID) {
		t.Fatalf("ReadIDs() error = %v, want ErrInvalidID", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q does not name line 3", err)
	}
}

func TestReadSample(t *testing.T) {
	input := "source_id,SPPred,SpType\n" +
		"1,DZ,DZ\n" +
		"2,DAZ,DA\n" +
		"3,DA,DZ \n" +
		"4,DB,DB\n"

	tests := []struct {
		name string
		sel  catalog.SampleSpec
		want []models.ID
	}{
		{"all rows", catalog.SampleSpec{}, []models.ID{1, 2, 3, 4}},
		{"contains", catalog.SampleSpec{LabelColumn: "SPPred", Contains: "Z"}, []models.ID{1, 2}},
		{"equals", catalog.SampleSpec{LabelColumn: "SpType", Equals: "DZ"}, []models.ID{1, 3}},
		{"named id column", catalog.SampleSpec{IDColumn: "source_id", LabelColumn: "SpType", Equals: "DB"}, []models.ID{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.ReadSample(strings.NewReader(input), tt.sel)
			if err != nil {
				t.Fatalf("ReadSample() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ReadSample() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadSampleMissingColumn(t *testing.T) {
	_, err := catalog.ReadSample(strings.NewReader("source_id\n1\n"), catalog.SampleSpec{LabelColumn: "SPPred"})
	if !errors.Is(err, catalog.ErrMissingColumn) {
		t.Errorf("ReadSample() error = %v, want ErrMissingColumn", err)
	}
}
