package money

import (
	"fmt"
	"time"
)

// Period is a closed, inclusive UTC calendar-date range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a Period, normalizing both bounds to UTC midnight.
func NewPeriod(start, end time.Time) Period {
	return Period{Start: toUTCDate(start), End: toUTCDate(end)}
}

// FullYear returns the Period spanning y-01-01 through y-12-31.
func FullYear(y int) Period {
	return Period{
		Start: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// MotorSeason returns the Jan 28 - Oct 27 window powered tow and member
// aircraft bill within, distinct from gliders' full-year season.
func MotorSeason(y int) Period {
	return Period{
		Start: time.Date(y, time.January, 28, 0, 0, 0, 0, time.UTC),
		End:   time.Date(y, time.October, 27, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether Start <= d <= End.
func (p Period) Contains(d time.Time) bool {
	d = toUTCDate(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

func toUTCDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AgeYears computes age in fractional years at asOf (elapsed days divided
// by 365.25), the convention spec.md §4.1 requires for BirthDate filters.
func AgeYears(birthDate, asOf time.Time) float64 {
	days := asOf.UTC().Sub(birthDate.UTC()).Hours() / 24
	return days / 365.25
}
