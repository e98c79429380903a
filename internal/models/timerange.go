package models

import (
	"fmt"
	"math"

	apperrors "MediaScribe/pkg/errors"
)

// TimeRange is the half-open interval [Start, End) in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewTimeRange returns a validated range.
func NewTimeRange(start, end float64) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	return r, r.Validate()
}

// Validate checks start >= 0, end >= start and that both are finite.
func (r TimeRange) Validate() error {
	switch {
	case math.IsNaN(r.Start) || math.IsInf(r.Start, 0) || math.IsNaN(r.End) || math.IsInf(r.End, 0):
		return apperrors.WithCodef(apperrors.CodeValidation, "time range %s is not finite", r)
	case r.Start < 0:
		return apperrors.WithCodef(apperrors.CodeValidation, "time range %s starts before zero", r)
	case r.End < r.Start:
		return apperrors.WithCodef(apperrors.CodeValidation, "time range %s ends before it starts", r)
	}
	return nil
}

// Contains reports start <= t < end.
func (r TimeRange) Contains(t float64) bool {
	return r.Start <= t && t < r.End
}

// Overlaps reports whether the ranges share any instant. Touching ranges
// (r.End == o.Start) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Shift moves the range to newStart keeping its duration.
func (r TimeRange) Shift(newStart float64) (TimeRange, error) {
	return NewTimeRange(newStart, newStart+r.Duration())
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%g, %g)", r.Start, r.End)
}
