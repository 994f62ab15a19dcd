// Package calendar implements the date arithmetic behind TimeDomain.
// All arithmetic goes through a Calendar; calendars are never mixed
// within a single coupled model.
package calendar

import (
	"fmt"
	"time"
)

// Kind identifies a supported calendar system.
type Kind string

const (
	Gregorian Kind = "gregorian"
	NoLeap    Kind = "noleap"
	Day360    Kind = "360_day"
)

// Calendar performs day-stepping arithmetic under one of the supported
// calendar systems. The gregorian calendar defers to the standard
// library's proleptic-gregorian time.Time; noleap and 360_day are
// hand-rolled since time.Time cannot express them.
type Calendar struct {
	Kind Kind
}

// New validates and returns a Calendar of the given kind.
func New(kind Kind) (Calendar, error) {
	switch kind {
	case Gregorian, NoLeap, Day360:
		return Calendar{Kind: kind}, nil
	default:
		return Calendar{}, fmt.Errorf("calendar: unknown kind %q", kind)
	}
}

func daysInMonthNoLeap(month int) int {
	return [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}[month-1]
}

// AddDuration returns t advanced by d under the receiver's calendar. d
// must not itself imply calendar-dependent leap adjustments (i.e. it is
// a fixed-length duration in seconds), which holds for every TimeDomain
// step in this specification (constant Δt).
func (c Calendar) AddDuration(t time.Time, d time.Duration) time.Time {
	switch c.Kind {
	case Gregorian:
		return t.Add(d)
	case NoLeap:
		return c.addSecondsNoLeap(t, int64(d/time.Second))
	case Day360:
		return c.addSeconds360(t, int64(d/time.Second))
	default:
		return t.Add(d)
	}
}

// addSecondsNoLeap steps forward second-by-day, skipping Feb 29 as if it
// did not exist, so every year has exactly 365 days.
func (c Calendar) addSecondsNoLeap(t time.Time, secs int64) time.Time {
	const daySecs = 86400
	days := secs / daySecs
	rem := secs % daySecs
	y, m, d := t.Year(), int(t.Month()), t.Day()
	for i := int64(0); i < days; i++ {
		d++
		dim := daysInMonthNoLeap(m)
		if m == 2 && d == 29 {
			d = 1
			m = 3
		} else if d > dim {
			d = 1
			m++
			if m > 12 {
				m = 1
				y++
			}
		}
	}
	return time.Date(y, time.Month(m), d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Add(time.Duration(rem) * time.Second)
}

// addSeconds360 steps forward assuming every month has exactly 30 days,
// i.e. a 360-day year.
func (c Calendar) addSeconds360(t time.Time, secs int64) time.Time {
	const daySecs = 86400
	days := secs / daySecs
	rem := secs % daySecs
	y, m, d := t.Year(), int(t.Month()), t.Day()
	if d > 30 {
		d = 30
	}
	for i := int64(0); i < days; i++ {
		d++
		if d > 30 {
			d = 1
			m++
			if m > 12 {
				m = 1
				y++
			}
		}
	}
	return time.Date(y, time.Month(m), d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Add(time.Duration(rem) * time.Second)
}

// DayOfYear returns the calendar-correct 1-based day-of-year bucket for t,
// used to index day-of-year climatologic inputs.
func (c Calendar) DayOfYear(t time.Time) int {
	switch c.Kind {
	case Day360:
		return (int(t.Month())-1)*30 + t.Day()
	case NoLeap:
		doy := t.Day()
		for m := 1; m < int(t.Month()); m++ {
			doy += daysInMonthNoLeap(m)
		}
		return doy
	default:
		return t.YearDay()
	}
}

// MonthBucket returns the 0-based month bucket (0=January) for a monthly
// climatologic input, e.g. ancillary_b[11] for December.
func (c Calendar) MonthBucket(t time.Time) int { return int(t.Month()) - 1 }

// SeasonBucket returns a 0-based meteorological-season bucket
// (0=DJF, 1=MAM, 2=JJA, 3=SON).
func (c Calendar) SeasonBucket(t time.Time) int {
	switch t.Month() {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}
