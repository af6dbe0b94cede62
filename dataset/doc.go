// Package dataset loads regional statistical tables and extracts per-region
// yearly series from them.
//
// A Dataset wraps a gota DataFrame together with a Schema naming its
// region-code, region-name and year columns. Every other numeric column is a
// variable that can be extracted:
//
//	ds, err := dataset.Load("nuts2.csv", f, dataset.DefaultSchema())
//	if err != nil {
//	    return err
//	}
//	series, err := dataset.Extract(ds, "EL30", "Employment")
//
// Extract returns an empty series, not an error, when the region has no rows.
// Missing columns and non-numeric variables are reported as *PreconditionError
// before any rows are read.
package dataset
