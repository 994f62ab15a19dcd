package dummy

import (
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
)

// OpenWater builds a dummy openwater.Component: a monthly climatologic
// input, one parameter, one constant-sized division axis on its single
// state, and three outwards (one of which, transfer_o, has no wired
// consumer in this model and is simply never collected).
func OpenWater() *component.Component {
	return &component.Component{
		Descriptor: component.Descriptor{
			Category: component.OpenWater,
			Inwards: []component.TransferSpec{
				{Name: "transfer_j", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.SurfaceLayer}},
				{Name: "transfer_m", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.SubSurface}},
			},
			Outwards: []component.TransferSpec{
				{Name: "transfer_l", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.SurfaceLayer}},
				{Name: "transfer_n", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.SurfaceLayer, component.SubSurface}},
				{Name: "transfer_o", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: nil},
			},
			Inputs: []component.InputSpec{
				{Name: "ancillary_b", Units: "1", Kind: dataset.KindClimatologic, Frequency: dataset.FrequencyMonthly},
			},
			Parameters: []component.ParameterSpec{{Name: "parameter_c", Units: "1"}},
			Constants:  []component.ConstantSpec{{Name: "constant_c", Units: "1", Default: 3}},
			States: []component.StateSpec{
				{Name: "state_a", Units: "1", Divisions: []component.DivisionDim{{Fixed: 4}, {ConstantName: "constant_c"}}},
			},
			Outputs: []component.OutputSpec{
				{Name: "output_x", Units: "1"},
				{Name: "output_y", Units: "1"},
			},
			SolverHistory: 1,
		},
		Initialise: func(ctx *component.RunContext) error { return nil },
		Run: func(ctx *component.RunContext) error {
			stateA := ctx.States["state_a"]
			prev := stateA.GetTimestep(-1)[0]
			a0 := addScalar(prev, 1)
			divisions := stateA.GetTimestep(0)
			divisions[0] = a0
			stateA.SetTimestep(0, divisions)

			// staged to the current month's bucket already; the reference
			// implementation's dummy indexes ancillary_b[11] unconditionally,
			// a quirk not reproduced here since staging already resolves the
			// calendar-correct bucket for "now".
			ancB := ctx.Inputs["ancillary_b"]
			ctx.Outwards["transfer_l"] = add(mul(ancB, ctx.Inwards["transfer_m"]), a0)
			ctx.Outwards["transfer_n"] = mulScalar(ctx.Inwards["transfer_j"], ctx.Parameters["parameter_c"])
			ctx.Outwards["transfer_o"] = addScalar(ctx.Inwards["transfer_j"], ctx.Constants["constant_c"])

			ctx.Outputs["output_x"] = addScalar(mulScalar(ctx.Inwards["transfer_j"], ctx.Parameters["parameter_c"]), ctx.Constants["constant_c"])
			ctx.Outputs["output_y"] = sub(mul(ancB, ctx.Inwards["transfer_m"]), a0)
			return nil
		},
	}
}
