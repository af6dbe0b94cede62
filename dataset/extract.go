package dataset

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/sartorproj/regiocast/timeseries"
)

// Extract returns the historical series of variable for one region, sorted
// by year. Rows sharing a year are kept in file order. Rows with a missing
// or infinite year or value are skipped. A region with no rows yields an
// empty series.
func Extract(ds *Dataset, regionCode, variable string) (*timeseries.Series, error) {
	if err := ds.CheckVariable(variable); err != nil {
		return nil, err
	}

	rows := ds.df.Filter(dataframe.F{
		Colname:    ds.Schema.RegionCode,
		Comparator: series.Eq,
		Comparando: regionCode,
	})
	if rows.Err != nil || rows.Nrow() == 0 {
		// gota reports a type mismatch on the comparando as a frame error;
		// either way nothing matches.
		s := timeseries.Empty(timeseries.Historical)
		s.Name = variable
		return s, nil
	}

	years := rows.Col(ds.Schema.Year)
	values := rows.Col(variable)

	points := make([]timeseries.TimePoint, 0, rows.Nrow())
	for i := 0; i < rows.Nrow(); i++ {
		ye, ve := years.Elem(i), values.Elem(i)
		if ye.IsNA() || ve.IsNA() {
			continue
		}
		year := ye.Float()
		value := ve.Float()
		if math.IsNaN(year) || math.IsNaN(value) || math.IsInf(year, 0) || math.IsInf(value, 0) {
			continue
		}
		points = append(points, timeseries.TimePoint{
			Year:  int(math.Round(year)),
			Value: value,
		})
	}

	s := timeseries.FromPoints(timeseries.Historical, points).SortedByYear()
	s.Name = variable
	return s, nil
}
