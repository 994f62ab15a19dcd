package space

import (
	"github.com/maseology/mmaths"

	"github.com/maseology/cm4go/modelerr"
)

// RouteResult holds the outcome of one Route() call: mass arriving at
// each cell from its immediate upstream neighbour, mass leaving the
// grid from a sink-bound cell, and the total reaching the grid's
// outflow sink.
type RouteResult struct {
	RoutedIn []float64 // per cell, flattened i*NX+j; mass moved in from its upstream neighbour this step
	Leaving  []float64 // per cell, flattened i*NX+j; nonzero only for cells whose flow leaves the domain
	Sink     float64
}

// order returns cells in downstream-processing order: a cell is only
// finalised after every cell that flows into it has been. Grounded
// directly on the teacher's subwatershed router (basin/router.go),
// which orders sub-watersheds for routing via mmaths.OrderFromToTree on
// a cell-to-downstream-cell map; here the same call orders grid cells
// along the flow-direction field instead of a subwatershed tree.
func (g *Grid) order() []int {
	n := g.NY * g.NX
	dsws := make(map[int]int, n) // -1 marks a sink, as in basin/router.go
	for i := 0; i < g.NY; i++ {
		for j := 0; j < g.NX; j++ {
			idx := i*g.NX + j
			off := g.FlowDirection[idx]
			ni, nj := i+off[0], j+off[1]
			if off == [2]int{0, 0} || ni < 0 || ni >= g.NY || nj < 0 || nj >= g.NX {
				dsws[idx] = -1
			} else {
				dsws[idx] = ni*g.NX + nj
			}
		}
	}
	order := mmaths.OrderFromToTree(dsws, -1)
	if len(order) < n {
		// a cycle exists (e.g. two cells routing into each other); append
		// the remainder in raster order rather than losing mass silently.
		seen := make([]bool, n)
		for _, c := range order {
			seen[c] = true
		}
		for i := 0; i < n; i++ {
			if !seen[i] {
				order = append(order, i)
			}
		}
	}
	return order
}

// Route moves fluxPerArea*area*dtSeconds of mass downstream by exactly
// one cell along the flow-direction field, mirroring
// original_source/unifhy's space.py route() (one shift per direction,
// each cell's own mass handed to its immediate downstream neighbour,
// never cascaded further within the same call). A cell pointing to
// itself, or off the grid, hands its mass to the sink rather than
// losing it silently. The caller is responsible for adding RoutedIn
// into next step's mass at the receiving cell if multi-step
// propagation is wanted.
func (g *Grid) Route(fluxPerArea []float64, dtSeconds float64) (*RouteResult, error) {
	if g.FlowDirection == nil {
		return nil, errNoFlowDirection
	}
	n := g.NY * g.NX
	if len(fluxPerArea) != n {
		return nil, &modelerr.ShapeError{Where: "Grid.Route", Expected: [2]int{g.NY, g.NX}, Got: [2]int{len(fluxPerArea), 1}}
	}
	mass := make([]float64, n)
	for idx, f := range fluxPerArea {
		i, j := idx/g.NX, idx%g.NX
		mass[idx] = f * g.CellArea(i, j) * dtSeconds
	}

	routedIn := make([]float64, n)
	leaving := make([]float64, n)
	sink := 0.0

	for _, idx := range g.order() {
		i, j := idx/g.NX, idx%g.NX
		off := g.FlowDirection[idx]
		ni, nj := i+off[0], j+off[1]
		if off == [2]int{0, 0} || ni < 0 || ni >= g.NY || nj < 0 || nj >= g.NX {
			sink += mass[idx]
			leaving[idx] = mass[idx]
			continue
		}
		routedIn[ni*g.NX+nj] += mass[idx]
	}
	return &RouteResult{RoutedIn: routedIn, Leaving: leaving, Sink: sink}, nil
}

var errNoFlowDirection = modelerr.NewConfigError("Grid.Route", "grid has no flow-direction field")
