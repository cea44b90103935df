package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors shared by adjustment, feature computation and acquisition.
var (
	// ErrDataIntegrity is returned when an instrument's series cannot be adjusted:
	// missing or non-positive close, duplicate or unordered dates, zero price in the recursion.
	ErrDataIntegrity = errors.New("data integrity")

	// ErrFeatureNotFound is returned when a requested field is not an available column.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrDateRange is returned when the requested range is inverted or not present in the data.
	ErrDateRange = errors.New("invalid date range")

	// ErrDatasetIncomplete is returned by acquisition when a requested range has no data.
	ErrDatasetIncomplete = errors.New("dataset incomplete")

	// ErrInvalidFeatureSpec is returned when a feature name does not parse.
	ErrInvalidFeatureSpec = errors.New("invalid feature spec")

	// ErrMalformedSplit is returned for split ratio strings that do not parse.
	ErrMalformedSplit = errors.New("malformed split ratio")
)

// DataIntegrityError locates an integrity failure within an instrument series.
type DataIntegrityError struct {
	InstrumentID string
	Date         time.Time
	Reason       string
	Err          error // optional cause
}

func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("data integrity: %s", e.InstrumentID)
	if !e.Date.IsZero() {
		msg += " at " + e.Date.Format(DateLayout)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrDataIntegrity as well as the wrapped cause.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// FeatureNotFoundError names the field that is not available.
type FeatureNotFoundError struct {
	Feature string // full feature name as requested
	Field   string // field part that was not found
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("feature not found: %s (field %q)", e.Feature, e.Field)
}

func (e *FeatureNotFoundError) Is(target error) bool {
	return target == ErrFeatureNotFound
}

// DateRangeError describes an unusable request range.
type DateRangeError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("invalid date range %s..%s: %s",
		e.Start.Format(DateLayout), e.End.Format(DateLayout), e.Reason)
}

func (e *DateRangeError) Is(target error) bool {
	return target == ErrDateRange
}

// DatasetIncompleteError reports missing data for an instrument in a requested range.
type DatasetIncompleteError struct {
	InstrumentID string
	Missing      []time.Time // trading dates without a row, empty when nothing was found at all
}

func (e *DatasetIncompleteError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("dataset incomplete: %s: no data in range", e.InstrumentID)
	}
	return fmt.Sprintf("dataset incomplete: %s: %d missing trading days starting %s",
		e.InstrumentID, len(e.Missing), e.Missing[0].Format(DateLayout))
}

func (e *DatasetIncompleteError) Is(target error) bool {
	return target == ErrDatasetIncomplete
}
