package dummy

import (
	"testing"
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
	"github.com/maseology/cm4go/space"
	"github.com/maseology/cm4go/timedomain"
)

func buildOneCellAdapter(t *testing.T, c *component.Component, ds *dataset.DataSet, parameters map[string]float64) (*component.Adapter, time.Time) {
	t.Helper()
	g, err := space.Build([]float64{0, 1}, []float64{0, 1}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cal, _ := calendar.New(calendar.Gregorian)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	td, err := timedomain.Build(start, start.Add(time.Hour), time.Hour, cal)
	if err != nil {
		t.Fatal(err)
	}
	c.Grid = g
	c.TimeDomain = td
	a, err := component.Build(c, parameters, nil, ds)
	if err != nil {
		t.Fatal(err)
	}
	return a, start.Add(time.Hour)
}

func TestSurfaceLayerFormulas(t *testing.T) {
	ds := dataset.New()
	ds.Add(&dataset.Field{Name: "driving_a", Times: []time.Time{{}}, Values: [][]float64{{5}}})
	ds.Add(&dataset.Field{Name: "driving_b", Times: []time.Time{{}}, Values: [][]float64{{3}}})
	ds.Add(&dataset.Field{Name: "driving_c", Times: []time.Time{{}}, Values: [][]float64{{2}}})
	ds.Add(&dataset.Field{Name: "ancillary_c", Values: [][]float64{{10}}})

	a, now := buildOneCellAdapter(t, SurfaceLayer(), ds, nil)
	inwards := map[string][]float64{"transfer_k": {4}, "transfer_l": {6}, "transfer_n": {1}}
	outwards, outputs, err := a.Step(now, inwards)
	if err != nil {
		t.Fatal(err)
	}
	if got := outwards["transfer_i"][0]; got != 24 {
		t.Fatalf("transfer_i: got %v, want 24", got)
	}
	if got := outwards["transfer_j"][0]; got != 16 {
		t.Fatalf("transfer_j: got %v, want 16", got)
	}
	if got := outputs["output_x"][0]; got != 10 {
		t.Fatalf("output_x: got %v, want 10", got)
	}
	if got := a.States()["state_a"].GetTimestep(0)[0][0]; got != 1 {
		t.Fatalf("state_a: got %v, want 1", got)
	}
	if got := a.States()["state_b"].GetTimestep(0)[0][0]; got != 2 {
		t.Fatalf("state_b: got %v, want 2", got)
	}
}

func TestSubSurfaceFormulas(t *testing.T) {
	ds := dataset.New()
	ds.Add(&dataset.Field{Name: "driving_a", Times: []time.Time{{}}, Values: [][]float64{{8}}})

	a, now := buildOneCellAdapter(t, SubSurface(), ds, map[string]float64{"parameter_a": 0.5})
	inwards := map[string][]float64{"transfer_i": {3}, "transfer_n": {2}}
	outwards, outputs, err := a.Step(now, inwards)
	if err != nil {
		t.Fatal(err)
	}
	if got := outwards["transfer_k"][0]; got != 7 {
		t.Fatalf("transfer_k: got %v, want 7", got)
	}
	if got := outwards["transfer_m"][0]; got != 9 {
		t.Fatalf("transfer_m: got %v, want 9", got)
	}
	if got := outputs["output_x"][0]; got != 5 {
		t.Fatalf("output_x: got %v, want 5", got)
	}
}

func TestOpenWaterFormulas(t *testing.T) {
	ds := dataset.New()
	ds.Add(&dataset.Field{Name: "ancillary_b", Values: [][]float64{
		{0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5}, {0.5},
	}})

	a, now := buildOneCellAdapter(t, OpenWater(), ds, map[string]float64{"parameter_c": 0.2})
	inwards := map[string][]float64{"transfer_j": {10}, "transfer_m": {4}}
	outwards, outputs, err := a.Step(now, inwards)
	if err != nil {
		t.Fatal(err)
	}
	if got := outwards["transfer_l"][0]; got != 3 {
		t.Fatalf("transfer_l: got %v, want 3", got)
	}
	if got := outwards["transfer_n"][0]; got != 2 {
		t.Fatalf("transfer_n: got %v, want 2", got)
	}
	if got := outwards["transfer_o"][0]; got != 13 {
		t.Fatalf("transfer_o: got %v, want 13", got)
	}
	if got := outputs["output_x"][0]; got != 5 {
		t.Fatalf("output_x: got %v, want 5", got)
	}
	if got := outputs["output_y"][0]; got != 1 {
		t.Fatalf("output_y: got %v, want 1", got)
	}
	if got := a.States()["state_a"].Divisions; got != 12 {
		t.Fatalf("state_a divisions: got %d, want 12 (4 * constant_c default 3)", got)
	}
}
