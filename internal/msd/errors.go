package msd

import (
	"errors"
	"fmt"
)

// Reason names why a series was refused before fitting.
type Reason string

const (
	InsufficientDuration Reason = "InsufficientDuration"
	InsufficientSamples  Reason = "InsufficientSamples"
	MalformedSeries      Reason = "MalformedSeries"
)

var (
	ErrInsufficientDuration = errors.New("msd: insufficient duration")
	ErrInsufficientSamples  = errors.New("msd: insufficient samples")
	ErrMalformedSeries      = errors.New("msd: malformed series")

	// ErrInvalidConfig is returned for out-of-range filter or extract settings.
	ErrInvalidConfig = errors.New("msd: invalid configuration")
)

// RejectionError is the typed refusal returned by Filter and Extract.
// It unwraps to the sentinel matching its Reason.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("msd: series rejected: %s", e.Reason)
	}
	return fmt.Sprintf("msd: series rejected: %s: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	switch e.Reason {
	case InsufficientDuration:
		return ErrInsufficientDuration
	case InsufficientSamples:
		return ErrInsufficientSamples
	case MalformedSeries:
		return ErrMalformedSeries
	}
	return nil
}

func reject(reason Reason, format string, args ...interface{}) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
