package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Observation is a point of a combined timeline, annotated with its origin.
type Observation struct {
	TimePoint
	Kind Kind `json:"type"`
}

// Combine concatenates series into one annotated timeline, in argument order.
// Nil and empty series are skipped.
func Combine(series ...*Series) []Observation {
	n := 0
	for _, s := range series {
		n += s.Len()
	}
	out := make([]Observation, 0, n)
	for _, s := range series {
		for i := 0; i < s.Len(); i++ {
			out = append(out, Observation{TimePoint: s.Point(i), Kind: s.Kind})
		}
	}
	return out
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"Year", "Value", "Type"}

// WriteCSV writes the series as delimited rows of year, value and origin label.
func WriteCSV(w io.Writer, series ...*Series) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, obs := range Combine(series...) {
		row := []string{
			strconv.Itoa(obs.Year),
			strconv.FormatFloat(obs.Value, 'f', -1, 64),
			obs.Kind.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the series to a file, truncating it.
func SaveCSV(filename string, series ...*Series) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, series...); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ReadCSV parses the output of WriteCSV back into its historical and forecast
// parts. Rows with an empty or NA value are skipped.
func ReadCSV(r io.Reader) (historical, forecast *Series, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	yearIdx, valueIdx, typeIdx := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Year":
			yearIdx = i
		case "Value":
			valueIdx = i
		case "Type":
			typeIdx = i
		}
	}
	if yearIdx < 0 || valueIdx < 0 {
		return nil, nil, errors.New("csv must contain Year and Value columns")
	}

	historical = Empty(Historical)
	forecast = Empty(Forecast)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		valStr := strings.TrimSpace(record[valueIdx])
		if valStr == "" || valStr == "NA" || valStr == "NaN" || valStr == "null" {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse value %q: %w", valStr, err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx]))
		if err != nil {
			return nil, nil, fmt.Errorf("parse year %q: %w", record[yearIdx], err)
		}

		kind := Historical
		if typeIdx >= 0 {
			if kind, err = ParseKind(strings.TrimSpace(record[typeIdx])); err != nil {
				return nil, nil, err
			}
		}

		target := historical
		if kind == Forecast {
			target = forecast
		}
		target.Years = append(target.Years, year)
		target.Values = append(target.Values, val)
	}

	return historical, forecast, nil
}
