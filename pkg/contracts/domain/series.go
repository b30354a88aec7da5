package domain

import (
	"fmt"
	"time"
)

// Frequency is the sampling frequency of a time series
type Frequency string

const (
	FreqDaily     Frequency = "D"
	FreqWeekly    Frequency = "W"
	FreqMonthly   Frequency = "M"
	FreqQuarterly Frequency = "Q"
	FreqAnnual    Frequency = "A"
)

// IsValid reports whether the frequency is one of the known codes
func (f Frequency) IsValid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqQuarterly, FreqAnnual:
		return true
	}
	return false
}

// PeriodsPerYear returns the number of samples spanning one year, or 0 when
// the frequency has no year-over-year step (daily and weekly series).
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	case FreqAnnual:
		return 1
	}
	return 0
}

// PeriodsPerQuarter returns the number of samples spanning one quarter, or 0
// when the frequency has no quarter-over-quarter step.
func (f Frequency) PeriodsPerQuarter() int {
	switch f {
	case FreqMonthly:
		return 3
	case FreqQuarterly:
		return 1
	}
	return 0
}

// Point is a single dated observation in a time series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is an ordered sequence of dated observations used as grounding
// evidence. Points must be sorted strictly ascending by date with no
// duplicates; an empty series is valid but unverifiable.
type TimeSeries struct {
	SeriesID  string    `json:"series_id" validate:"required"`
	Frequency Frequency `json:"freq"`
	Points    []Point   `json:"points"`
}

// Validate checks the series invariants: known frequency and strictly
// ascending point dates.
func (s TimeSeries) Validate() error {
	if s.SeriesID == "" {
		return fmt.Errorf("series_id is required")
	}
	if !s.Frequency.IsValid() {
		return fmt.Errorf("invalid frequency %q", s.Frequency)
	}
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i-1].Date.Before(s.Points[i].Date) {
			return fmt.Errorf("points not strictly ascending at index %d (%s >= %s)",
				i, s.Points[i-1].Date.Format("2006-01-02"), s.Points[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Last returns the most recent point, or false for an empty series
func (s TimeSeries) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
