package collector

import (
	"errors"
	"fmt"
)

// Stage names the step of the load sequence a failure belongs to.
type Stage string

const (
	StageCountryList Stage = "country_list"
	StageStatistics  Stage = "statistics"
)

// ErrMalformedResponse is returned when the payload is not an array, or is empty where
// one element was expected.
var ErrMalformedResponse = errors.New("malformed response")

// FetchError reports which stage of a fetch failed.
type FetchError struct {
	Stage Stage
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Stage, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsStage reports whether err is a FetchError for the given stage.
func IsStage(err error, stage Stage) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Stage == stage
}
