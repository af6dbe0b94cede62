package dataset

import (
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Schema names the columns that identify a row.
type Schema struct {
	RegionCode string `yaml:"region_code" json:"region_code"`
	RegionName string `yaml:"region_name" json:"region_name"`
	Year       string `yaml:"year" json:"year"`
}

// DefaultSchema returns the NUTS column layout.
func DefaultSchema() Schema {
	return Schema{
		RegionCode: "NUTS Code",
		RegionName: "NUTS name",
		Year:       "Year",
	}
}

func (s Schema) columns() []string {
	return []string{s.RegionCode, s.RegionName, s.Year}
}

// Region identifies the spatial unit a series belongs to.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Label renders the region the way selection lists show it: "Name (CODE)".
func (r Region) Label() string {
	if r.Name == "" {
		return r.Code
	}
	return r.Name + " (" + r.Code + ")"
}

// Dataset is an immutable table of regional observations.
type Dataset struct {
	Name   string
	Schema Schema

	df dataframe.DataFrame
}

// New wraps a loaded DataFrame. The frame must not be modified afterwards.
func New(name string, df dataframe.DataFrame, schema Schema) *Dataset {
	return &Dataset{Name: name, Schema: schema, df: df}
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int {
	return d.df.Nrow()
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	return d.df.Names()
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.df.Names(), name)
}

// Validate checks that the schema columns are present.
func (d *Dataset) Validate() error {
	var missing []string
	for _, col := range d.Schema.columns() {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &PreconditionError{Missing: missing}
	}
	return nil
}

// CheckVariable validates the schema and that variable is a numeric,
// non-schema column.
func (d *Dataset) CheckVariable(variable string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !d.HasColumn(variable) {
		return &PreconditionError{Missing: []string{variable}}
	}
	if slices.Contains(d.Schema.columns(), variable) || !isNumeric(d.df.Col(variable)) {
		return &PreconditionError{NonNumeric: variable}
	}
	return nil
}

// Regions returns the distinct regions in order of first appearance.
func (d *Dataset) Regions() ([]Region, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	codes := d.df.Col(d.Schema.RegionCode)
	names := d.df.Col(d.Schema.RegionName)

	seen := make(map[Region]bool)
	var regions []Region
	for i := 0; i < codes.Len(); i++ {
		if codes.Elem(i).IsNA() {
			continue
		}
		r := Region{Code: codes.Elem(i).String()}
		if !names.Elem(i).IsNA() {
			r.Name = names.Elem(i).String()
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		regions = append(regions, r)
	}
	return regions, nil
}

// Region looks up a region by code.
func (d *Dataset) Region(code string) (Region, bool) {
	regions, err := d.Regions()
	if err != nil {
		return Region{}, false
	}
	for _, r := range regions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}

// NumericVariables lists the numeric columns other than the schema columns.
func (d *Dataset) NumericVariables() []string {
	schemaCols := d.Schema.columns()
	var vars []string
	for _, name := range d.df.Names() {
		if slices.Contains(schemaCols, name) {
			continue
		}
		if isNumeric(d.df.Col(name)) {
			vars = append(vars, name)
		}
	}
	return vars
}

func isNumeric(s series.Series) bool {
	return s.Type() == series.Int || s.Type() == series.Float
}
