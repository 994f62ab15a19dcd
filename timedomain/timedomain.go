// Package timedomain implements TimeDomain: a monotone increasing
// sequence of timestep bounds with a calendar and a constant step.
package timedomain

import (
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/modelerr"
)

// TimeDomain is immutable after Build: (start, step, N) plus calendar.
// The derived sequence of N+1 bounds encloses N timesteps, and
// end == start + N*step.
type TimeDomain struct {
	Start    time.Time
	Step     time.Duration
	N        int
	Calendar calendar.Calendar
}

// Build constructs a TimeDomain spanning [start, end] at the given
// constant step under the given calendar.
func Build(start, end time.Time, step time.Duration, cal calendar.Calendar) (*TimeDomain, error) {
	if step <= 0 {
		return nil, modelerr.NewConfigError("timedomain.Build", "step must be positive, got %v", step)
	}
	if !end.After(start) && !end.Equal(start) {
		return nil, modelerr.NewConfigError("timedomain.Build", "end %v precedes start %v", end, start)
	}
	n := 0
	t := start
	for t.Before(end) {
		t = cal.AddDuration(t, step)
		n++
	}
	if !t.Equal(end) {
		return nil, modelerr.NewConfigError("timedomain.Build", "period [%v,%v] is not an integer multiple of step %v", start, end, step)
	}
	return &TimeDomain{Start: start, Step: step, N: n, Calendar: cal}, nil
}

// End returns start + N*step.
func (td *TimeDomain) End() time.Time {
	t := td.Start
	for i := 0; i < td.N; i++ {
		t = td.Calendar.AddDuration(t, td.Step)
	}
	return t
}

// Bounds returns the N+1 timestep bounds enclosing the N timesteps.
func (td *TimeDomain) Bounds() []time.Time {
	b := make([]time.Time, td.N+1)
	b[0] = td.Start
	t := td.Start
	for i := 1; i <= td.N; i++ {
		t = td.Calendar.AddDuration(t, td.Step)
		b[i] = t
	}
	return b
}

// Aligns reports whether two TimeDomains may couple: same calendar, same
// start and end, and their steps are integer multiples of one another.
func (a *TimeDomain) Aligns(b *TimeDomain) bool {
	if a.Calendar.Kind != b.Calendar.Kind {
		return false
	}
	if !a.Start.Equal(b.Start) {
		return false
	}
	if !a.End().Equal(b.End()) {
		return false
	}
	fast, slow := a.Step, b.Step
	if fast > slow {
		fast, slow = slow, fast
	}
	if fast <= 0 {
		return false
	}
	return slow%fast == 0
}

// Ratio returns slow.Step / fast.Step, i.e. how many fast ticks make up
// one slow tick. It does not check alignment: for steps that are not
// integer multiples the quotient is truncated, so callers check Aligns
// first.
func Ratio(fast, slow *TimeDomain) int {
	return int(slow.Step / fast.Step)
}

// LCMStep returns the base period of a set of aligned TimeDomains: the
// least-common-multiple of their steps.
func LCMStep(domains []*TimeDomain) time.Duration {
	if len(domains) == 0 {
		return 0
	}
	lcm := domains[0].Step
	for _, td := range domains[1:] {
		lcm = lcmDuration(lcm, td.Step)
	}
	return lcm
}

// GCDStep returns the finest common increment of a set of aligned
// TimeDomains: the greatest-common-divisor of their steps. This is the
// Driver's Δt_fast, the sub-interval every component's own step is
// guaranteed to be an integer multiple of once Aligns holds pairwise.
func GCDStep(domains []*TimeDomain) time.Duration {
	if len(domains) == 0 {
		return 0
	}
	g := domains[0].Step
	for _, td := range domains[1:] {
		g = gcdDuration(g, td.Step)
	}
	return g
}

func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcmDuration(a, b time.Duration) time.Duration {
	g := gcdDuration(a, b)
	if g == 0 {
		return 0
	}
	return a / g * b
}
