package component

import (
	"testing"
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/dataset"
	"github.com/maseology/cm4go/space"
	"github.com/maseology/cm4go/timedomain"
)

func buildTestComponent(t *testing.T, run RunFunc) (*Component, dataset.Source) {
	t.Helper()
	g, err := space.Build([]float64{0, 1}, []float64{0, 1, 2}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cal, _ := calendar.New(calendar.Gregorian)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	td, err := timedomain.Build(start, start.Add(2*time.Hour), time.Hour, cal)
	if err != nil {
		t.Fatal(err)
	}
	ds := dataset.New()
	ds.Add(&dataset.Field{
		Name: "driving_a", Grid: g,
		Times:  []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)},
		Values: [][]float64{{1, 1}, {2, 2}, {3, 3}},
	})
	c := &Component{
		Descriptor: Descriptor{
			Category: SurfaceLayer,
			Inputs:   []InputSpec{{Name: "driving_a", Kind: dataset.KindDynamic}},
			Outputs:  []OutputSpec{{Name: "output_x"}},
			States:   []StateSpec{{Name: "state_a", Divisions: []DivisionDim{{Fixed: 1}}}},
		},
		Grid: g, TimeDomain: td, Run: run,
	}
	return c, ds
}

func TestAdapterStepStagesInputsAndValidatesOutputs(t *testing.T) {
	c, ds := buildTestComponent(t, func(ctx *RunContext) error {
		ctx.Outputs["output_x"] = mulScalarTest(ctx.Inputs["driving_a"], 2)
		return nil
	})
	a, err := Build(c, nil, nil, ds)
	if err != nil {
		t.Fatal(err)
	}
	now := c.TimeDomain.Start.Add(time.Hour)
	_, outputs, err := a.Step(now, nil)
	if err != nil {
		t.Fatal(err)
	}
	if outputs["output_x"][0] != 4 {
		t.Fatalf("got %v, want 4 (driving_a=2 at t=1h, doubled)", outputs["output_x"][0])
	}
}

func TestAdapterStepRejectsWrongShapeOutput(t *testing.T) {
	c, ds := buildTestComponent(t, func(ctx *RunContext) error {
		ctx.Outputs["output_x"] = []float64{1} // grid has 2 cells
		return nil
	})
	a, err := Build(c, nil, nil, ds)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Step(c.TimeDomain.Start.Add(time.Hour), nil); err == nil {
		t.Fatal("expected a shape error for a mis-sized output")
	}
}

func TestAdapterStepRecoversPanic(t *testing.T) {
	c, ds := buildTestComponent(t, func(ctx *RunContext) error {
		panic("boom")
	})
	a, err := Build(c, nil, nil, ds)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Step(c.TimeDomain.Start.Add(time.Hour), nil); err == nil {
		t.Fatal("expected a ComponentError recovered from the panicking run hook")
	}
}

func mulScalarTest(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}
