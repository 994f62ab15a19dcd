package dummy

import (
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
)

// SubSurface builds a dummy subsurface.Component: one dynamic input,
// one parameter, two states, and two outwards feeding back to
// surfacelayer and openwater.
func SubSurface() *component.Component {
	return &component.Component{
		Descriptor: component.Descriptor{
			Category: component.SubSurface,
			Inwards: []component.TransferSpec{
				{Name: "transfer_i", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.SurfaceLayer}},
				{Name: "transfer_n", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.OpenWater}},
			},
			Outwards: []component.TransferSpec{
				{Name: "transfer_k", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.SurfaceLayer}},
				{Name: "transfer_m", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.OpenWater}},
			},
			Inputs: []component.InputSpec{
				{Name: "driving_a", Units: "1", Kind: dataset.KindDynamic},
			},
			Parameters: []component.ParameterSpec{{Name: "parameter_a", Units: "1"}},
			States: []component.StateSpec{
				{Name: "state_a", Units: "1", Divisions: []component.DivisionDim{{Fixed: 1}}},
				{Name: "state_b", Units: "1", Divisions: []component.DivisionDim{{Fixed: 1}}},
			},
			Outputs:       []component.OutputSpec{{Name: "output_x", Units: "1"}},
			SolverHistory: 1,
		},
		Initialise: func(ctx *component.RunContext) error { return nil },
		Run: func(ctx *component.RunContext) error {
			stateA, stateB := ctx.States["state_a"], ctx.States["state_b"]
			a0 := addScalar(stateA.GetTimestep(-1)[0], 1)
			b0 := addScalar(stateB.GetTimestep(-1)[0], 2)
			stateA.SetTimestep(0, [][]float64{a0})
			stateB.SetTimestep(0, [][]float64{b0})

			drivingTimesParam := mulScalar(ctx.Inputs["driving_a"], ctx.Parameters["parameter_a"])
			ctx.Outwards["transfer_k"] = add(drivingTimesParam, ctx.Inwards["transfer_n"], a0)
			ctx.Outwards["transfer_m"] = add(drivingTimesParam, ctx.Inwards["transfer_i"], b0)
			ctx.Outputs["output_x"] = sub(add(drivingTimesParam, ctx.Inwards["transfer_n"]), a0)
			return nil
		},
	}
}
