package arrhenius

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientDataPoints matches any *InsufficientDataPointsError.
	ErrInsufficientDataPoints = errors.New("arrhenius: insufficient data points")
	// ErrInvalidTemperature is returned for non-positive or non-finite targets.
	ErrInvalidTemperature = errors.New("arrhenius: invalid temperature")
)

// InsufficientDataPointsError reports that too few estimates survived
// selection for a meaningful regression.
type InsufficientDataPointsError struct {
	Min int
	Got int
}

func (e *InsufficientDataPointsError) Error() string {
	return fmt.Sprintf("arrhenius: InsufficientDataPoints(min=%d, got=%d)", e.Min, e.Got)
}

func (e *InsufficientDataPointsError) Unwrap() error { return ErrInsufficientDataPoints }
