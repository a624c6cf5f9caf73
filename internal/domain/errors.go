package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindNone means no error.
	KindNone Kind = iota
	// KindNotFound means the referenced time series does not exist.
	KindNotFound
	// KindInvalidInput means the time series cannot be used for prediction.
	KindInvalidInput
	// KindInternal means the prediction response could not be unpacked.
	KindInternal
	// KindUpstream means a collaborator failed; its error is passed through untouched.
	KindUpstream
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInternal:
		return "internal"
	case KindUpstream:
		return "upstream"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ClientFault reports whether the caller caused the failure.
func (k Kind) ClientFault() bool {
	return k == KindNotFound || k == KindInvalidInput
}

// SeriesNotFoundError is returned when a time series does not exist in a dataset.
type SeriesNotFoundError struct {
	DatasetID    string
	TimeSeriesID string
}

func (e *SeriesNotFoundError) Error() string {
	return fmt.Sprintf("time series %s not found", e.TimeSeriesID)
}

// InvalidSeriesShapeError is returned when a time series does not resolve to exactly one pair of frames.
type InvalidSeriesShapeError struct {
	TimeSeriesID string
	Count        int
}

func (e *InvalidSeriesShapeError) Error() string {
	return fmt.Sprintf("time series %s is not a pair (%d frames)", e.TimeSeriesID, e.Count)
}

// UnpackError is returned when the inference response archive cannot be unpacked.
type UnpackError struct {
	Err error
}

func (e *UnpackError) Error() string {
	return fmt.Sprintf("error during unzipping predictions: %v", e.Err)
}

func (e *UnpackError) Unwrap() error {
	return e.Err
}

// KindOf maps an error returned by the pipeline to its Kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var notFound *SeriesNotFoundError
	if errors.As(err, &notFound) {
		return KindNotFound
	}

	var shape *InvalidSeriesShapeError
	if errors.As(err, &shape) {
		return KindInvalidInput
	}

	var unpack *UnpackError
	if errors.As(err, &unpack) {
		return KindInternal
	}

	return KindUpstream
}
