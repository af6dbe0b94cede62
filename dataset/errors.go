package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned by Load for file types other than CSV and XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// PreconditionError reports a dataset that cannot serve a request: required
// columns are missing or the requested variable is not numeric.
type PreconditionError struct {
	Missing    []string // required columns absent from the dataset
	NonNumeric string   // requested variable that exists but is not numeric
}

func (e *PreconditionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if e.NonNumeric != "" {
		parts = append(parts, fmt.Sprintf("column %q is not numeric", e.NonNumeric))
	}
	if len(parts) == 0 {
		return "dataset precondition failed"
	}
	return strings.Join(parts, "; ")
}

// IsPrecondition reports whether err is or wraps a *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
