package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// missingMarkers are the cell values read as missing observations.
var missingMarkers = []string{"", "NA", "NaN", "N/A", "<nil>", ":", ".."}

// Load reads a dataset from r, choosing the parser by the extension of name.
// The schema columns are validated after loading.
func Load(name string, r io.Reader, schema Schema) (*Dataset, error) {
	var (
		df  dataframe.DataFrame
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		df, err = readCSV(r, schema)
	case ".xlsx", ".xlsm":
		df, err = readXLSX(r, schema)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(name), err)
	}

	ds := New(filepath.Base(name), df, schema)
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadFile opens and loads the file at path.
func LoadFile(path string, schema Schema) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(path, f, schema)
}

func loadOptions(schema Schema) []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.DetectTypes(true),
		dataframe.HasHeader(true),
		dataframe.NaNValues(missingMarkers),
		// Codes like "EL30" and "001" must compare as text.
		dataframe.WithTypes(map[string]series.Type{
			schema.RegionCode: series.String,
			schema.RegionName: series.String,
		}),
	}
}

func readCSV(r io.Reader, schema Schema) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r, loadOptions(schema)...)
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

// readXLSX loads the first sheet. Rows shorter than the header are padded
// with empty cells, which read as missing.
func readXLSX(r io.Reader, schema Schema) (dataframe.DataFrame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		record := make([]string, width)
		copy(record, row)
		records = append(records, record)
	}

	df := dataframe.LoadRecords(records, loadOptions(schema)...)
	if df.Err != nil {
		return df, df.Err
	}
	return df, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
