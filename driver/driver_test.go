package driver

import (
	"testing"
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
	"github.com/maseology/cm4go/exchanger"
	"github.com/maseology/cm4go/space"
	"github.com/maseology/cm4go/timedomain"
)

func buildDriverFixture(t *testing.T) (*Driver, *component.Adapter, *component.Adapter) {
	t.Helper()
	g, err := space.Build([]float64{0, 1}, []float64{0, 1}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cal, _ := calendar.New(calendar.Gregorian)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	td, err := timedomain.Build(start, end, time.Hour, cal)
	if err != nil {
		t.Fatal(err)
	}

	surface := &component.Component{
		Descriptor: component.Descriptor{
			Category: component.SurfaceLayer,
			Outwards: []component.TransferSpec{{Name: "transfer_i", Aggregation: component.Sum, Peers: []component.Category{component.SubSurface}}},
			Outputs:  []component.OutputSpec{{Name: "output_x"}},
		},
		Grid: g, TimeDomain: td,
		Run: func(ctx *component.RunContext) error {
			ctx.Outputs["output_x"] = []float64{1}
			ctx.Outwards["transfer_i"] = []float64{2}
			return nil
		},
	}
	subsurface := &component.Component{
		Descriptor: component.Descriptor{
			Category: component.SubSurface,
			Inwards:  []component.TransferSpec{{Name: "transfer_i", Aggregation: component.Sum, Peers: []component.Category{component.SurfaceLayer}}},
			Outputs:  []component.OutputSpec{{Name: "output_x"}},
		},
		Grid: g, TimeDomain: td,
		Run: func(ctx *component.RunContext) error {
			ctx.Outputs["output_x"] = ctx.Inwards["transfer_i"]
			return nil
		},
	}

	surfaceAdapter, err := component.Build(surface, nil, nil, dataset.New())
	if err != nil {
		t.Fatal(err)
	}
	subsurfaceAdapter, err := component.Build(subsurface, nil, nil, dataset.New())
	if err != nil {
		t.Fatal(err)
	}

	ex, err := exchanger.New([]*component.Adapter{surfaceAdapter, subsurfaceAdapter})
	if err != nil {
		t.Fatal(err)
	}
	clock, err := NewClock(cal, start, end, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New("sim1", clock, []*component.Adapter{surfaceAdapter, subsurfaceAdapter}, ex, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d, surfaceAdapter, subsurfaceAdapter
}

func TestSimulateOrdersAdaptersAndDeliversTransfers(t *testing.T) {
	d, _, subsurface := buildDriverFixture(t)
	if len(d.Adapters) != 2 || d.Adapters[0].Name != string(component.SurfaceLayer) {
		t.Fatalf("expected surfacelayer before subsurface per DeclaredOrder, got %v", d.Adapters)
	}
	var seen []float64
	run := subsurface.Component.Run
	subsurface.Component.Run = func(ctx *component.RunContext) error {
		seen = append(seen, ctx.Inwards["transfer_i"][0])
		return run(ctx)
	}
	if err := d.Simulate(); err != nil {
		t.Fatal(err)
	}
	// transfer_i published by surfacelayer during the same tick must be
	// visible to subsurface's Collect within that same walk iteration.
	if len(seen) == 0 || seen[0] != 2 {
		t.Fatalf("subsurface's first tick saw transfer_i %v, want 2 from the same tick", seen)
	}
}

func TestNewRejectsNonMultipleStep(t *testing.T) {
	g, err := space.Build([]float64{0, 1}, []float64{0, 1}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cal, _ := calendar.New(calendar.Gregorian)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	td, err := timedomain.Build(start, start.Add(90*time.Minute), 90*time.Minute, cal)
	if err != nil {
		t.Fatal(err)
	}
	c := &component.Component{
		Descriptor: component.Descriptor{Category: component.SurfaceLayer},
		Grid:       g, TimeDomain: td,
		Run: func(ctx *component.RunContext) error { return nil },
	}
	a, err := component.Build(c, nil, nil, dataset.New())
	if err != nil {
		t.Fatal(err)
	}
	ex, err := exchanger.New([]*component.Adapter{a})
	if err != nil {
		t.Fatal(err)
	}
	clock, err := NewClock(cal, start, start.Add(90*time.Minute), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("sim1", clock, []*component.Adapter{a}, ex, nil); err == nil {
		t.Fatal("expected a ConfigError: 90min is not an integer multiple of the 1h Δt_fast")
	}
}

func TestClockTicksCoversBasePeriod(t *testing.T) {
	cal, _ := calendar.New(calendar.Gregorian)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	clock, err := NewClock(cal, start, end, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	ticks := clock.Ticks()
	if len(ticks) != 3 || !ticks[2].Equal(end) {
		t.Fatalf("got %v, want 3 ticks ending at %v", ticks, end)
	}
	if clock.Len() != 3 {
		t.Fatalf("got %d, want 3", clock.Len())
	}
}

func TestSpinUpRepeatsPeriodAndTagsRecorders(t *testing.T) {
	d, surface, _ := buildDriverFixture(t)
	runs := 0
	run := surface.Component.Run
	surface.Component.Run = func(ctx *component.RunContext) error {
		runs++
		return run(ctx)
	}
	if err := d.SpinUp(2); err != nil {
		t.Fatal(err)
	}
	// two cycles over a two-tick period
	if runs != 4 {
		t.Fatalf("got %d surfacelayer runs, want 4", runs)
	}
	if d.tag != "spinup-1" {
		t.Fatalf("got tag %q after the last cycle, want spinup-1", d.tag)
	}
}
