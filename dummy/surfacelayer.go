package dummy

import (
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
)

// SurfaceLayer builds a dummy surfacelayer.Component. It reads two
// upstream categories' outwards (subsurface, openwater), routes its
// combined driving data and one inward across the grid's flow
// direction when one is declared, and produces one output plus two
// outwards feeding subsurface and openwater in turn.
func SurfaceLayer() *component.Component {
	return &component.Component{
		Descriptor: component.Descriptor{
			Category: component.SurfaceLayer,
			Inwards: []component.TransferSpec{
				{Name: "transfer_k", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.SubSurface}},
				{Name: "transfer_l", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.OpenWater}},
				{Name: "transfer_n", Units: "1", Direction: component.Inward, Aggregation: component.Mean, Peers: []component.Category{component.OpenWater}},
			},
			Outwards: []component.TransferSpec{
				{Name: "transfer_i", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.SubSurface}},
				{Name: "transfer_j", Units: "1", Direction: component.Outward, Aggregation: component.Mean, Peers: []component.Category{component.OpenWater}},
			},
			Inputs: []component.InputSpec{
				{Name: "driving_a", Units: "1", Kind: dataset.KindDynamic},
				{Name: "driving_b", Units: "1", Kind: dataset.KindDynamic},
				{Name: "driving_c", Units: "1", Kind: dataset.KindDynamic},
				{Name: "ancillary_c", Units: "1", Kind: dataset.KindStatic},
			},
			States: []component.StateSpec{
				{Name: "state_a", Units: "1", Divisions: []component.DivisionDim{{Fixed: 1}}},
				{Name: "state_b", Units: "1", Divisions: []component.DivisionDim{{Fixed: 1}}},
			},
			Outputs:               []component.OutputSpec{{Name: "output_x", Units: "1"}},
			SolverHistory:         1,
			RequiresLandSeaMask:   true,
			RequiresFlowDirection: true,
		},
		Initialise: func(ctx *component.RunContext) error {
			// state rings start zeroed by NewState; nothing to do on a
			// cold start, and a resume must not touch restored state.
			return nil
		},
		Run: func(ctx *component.RunContext) error {
			stateA, stateB := ctx.States["state_a"], ctx.States["state_b"]
			a0 := addScalar(stateA.GetTimestep(-1)[0], 1)
			b0 := addScalar(stateB.GetTimestep(-1)[0], 2)
			stateA.SetTimestep(0, [][]float64{a0})
			stateB.SetTimestep(0, [][]float64{b0})

			runoff := sub(add(ctx.Inputs["driving_a"], ctx.Inputs["driving_b"], ctx.Inputs["driving_c"], ctx.Inwards["transfer_n"]), a0)
			outputX := runoff
			if ctx.Grid.FlowDirection != nil {
				routed, err := ctx.Grid.Route(runoff, 86400)
				if err == nil {
					outputX = routed.RoutedIn
				}
			}

			ctx.Outwards["transfer_i"] = add(ctx.Inputs["driving_a"], ctx.Inputs["driving_b"], ctx.Inwards["transfer_l"], mul(ctx.Inputs["ancillary_c"], a0))
			ctx.Outwards["transfer_j"] = add(ctx.Inputs["driving_a"], ctx.Inputs["driving_b"], ctx.Inputs["driving_c"], ctx.Inwards["transfer_k"], b0)
			ctx.Outputs["output_x"] = outputX
			return nil
		},
	}
}
