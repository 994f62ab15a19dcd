package driver

import (
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/modelerr"
)

// Clock is the single-threaded pacemaker of a run: it advances from
// Start to End in fixed increments of DtFast, the finest of every
// wired component's own timestep. No component is ever asked to
// integrate faster than its own declared step; Clock only decides
// which of the base-period's sub-intervals have elapsed.
type Clock struct {
	Calendar calendar.Calendar
	Start    time.Time
	End      time.Time
	DtFast   time.Duration
}

// NewClock validates and builds a Clock from the finest of a set of
// component steps.
func NewClock(cal calendar.Calendar, start, end time.Time, dtFast time.Duration) (Clock, error) {
	if dtFast <= 0 {
		return Clock{}, modelerr.NewConfigError("driver.NewClock", "Δt_fast must be positive, got %v", dtFast)
	}
	if end.Before(start) {
		return Clock{}, modelerr.NewConfigError("driver.NewClock", "end %v precedes start %v", end, start)
	}
	return Clock{Calendar: cal, Start: start, End: end, DtFast: dtFast}, nil
}

// Ticks returns every sub-interval end-time in [Start+DtFast, End].
func (c Clock) Ticks() []time.Time {
	var out []time.Time
	t := c.Start
	for t.Before(c.End) {
		t = c.Calendar.AddDuration(t, c.DtFast)
		out = append(out, t)
	}
	return out
}

// Len reports the number of base ticks between Start and End.
func (c Clock) Len() int { return len(c.Ticks()) }
