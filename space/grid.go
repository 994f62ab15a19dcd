// Package space implements Grid, the rectilinear 2-D spatial domain that
// every component and transfer is defined over: cell bounds, optional
// land/sea mask, optional flow-direction field, cell areas, and the
// space-remapping machinery the Exchanger uses to move transfers between
// grids of different resolution.
package space

import (
	"math"

	"github.com/maseology/cm4go/modelerr"
)

// EarthRadiusMeters is the spherical-earth radius used to compute cell
// areas from lat/lon bounds when the configuration does not supply an
// explicit area field.
const EarthRadiusMeters = 6371000.0

// Grid is a rectilinear 2-D spatial domain: ny rows by nx columns, with
// monotone cell bounds in each dimension. It is immutable after Build.
type Grid struct {
	NY, NX int

	// YBounds has length NY+1, XBounds has length NX+1: cell i,j spans
	// [YBounds[i], YBounds[i+1]) x [XBounds[j], XBounds[j+1]).
	YBounds []float64
	XBounds []float64

	// Mask is optional; Mask[i][j] true means the cell participates in
	// the model (land). A nil Mask means every cell is active.
	Mask [][]bool

	// FlowDirection is optional; FlowDirection[i*NX+j] gives the (di, dj)
	// offset of cell (i,j)'s downstream neighbour. A cell pointing to itself, or
	// to a neighbour outside the grid, is a sink.
	FlowDirection [][2]int

	area [][]float64
}

// Build validates bounds and precomputes cell areas. If area is
// non-nil it overrides the computed geometry, cell for cell.
func Build(yBounds, xBounds []float64, mask [][]bool, flowDir [][2]int, area [][]float64) (*Grid, error) {
	ny, nx := len(yBounds)-1, len(xBounds)-1
	if ny <= 0 || nx <= 0 {
		return nil, modelerr.NewConfigError("space.Build", "grid must have at least one cell, got %dx%d", ny, nx)
	}
	if !monotone(yBounds) {
		return nil, modelerr.NewConfigError("space.Build", "y bounds are not monotone")
	}
	if !monotone(xBounds) {
		return nil, modelerr.NewConfigError("space.Build", "x bounds are not monotone")
	}
	if mask != nil {
		if len(mask) != ny || (ny > 0 && len(mask[0]) != nx) {
			return nil, &modelerr.ShapeError{Where: "space.Build mask", Expected: [2]int{ny, nx}, Got: [2]int{len(mask), colsOf(mask)}}
		}
	}
	if flowDir != nil && (len(flowDir) != ny*nx) {
		return nil, &modelerr.ShapeError{Where: "space.Build flow direction", Expected: [2]int{ny * nx, 1}, Got: [2]int{len(flowDir), 1}}
	}
	g := &Grid{NY: ny, NX: nx, YBounds: yBounds, XBounds: xBounds, Mask: mask, FlowDirection: flowDir}
	if area != nil {
		if len(area) != ny || (ny > 0 && len(area[0]) != nx) {
			return nil, &modelerr.ShapeError{Where: "space.Build area", Expected: [2]int{ny, nx}, Got: [2]int{len(area), colsOf(area)}}
		}
		g.area = area
	} else {
		g.area = g.computeAreas()
	}
	return g, nil
}

func colsOf[T any](m [][]T) int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func monotone(b []float64) bool {
	if len(b) < 2 {
		return false
	}
	inc := b[1] > b[0]
	for i := 1; i < len(b); i++ {
		if inc && b[i] <= b[i-1] {
			return false
		}
		if !inc && b[i] >= b[i-1] {
			return false
		}
	}
	return true
}

// computeAreas derives cell area in square metres from lat/lon bounds
// on a spherical earth: the area of a latitude band between two
// longitudes.
func (g *Grid) computeAreas() [][]float64 {
	deg2rad := math.Pi / 180.0
	rows := make([][]float64, g.NY)
	for i := 0; i < g.NY; i++ {
		lat0, lat1 := g.YBounds[i]*deg2rad, g.YBounds[i+1]*deg2rad
		if lat1 < lat0 {
			lat0, lat1 = lat1, lat0
		}
		bandFactor := EarthRadiusMeters * EarthRadiusMeters * (math.Sin(lat1) - math.Sin(lat0))
		rows[i] = make([]float64, g.NX)
		for j := 0; j < g.NX; j++ {
			lon0, lon1 := g.XBounds[j]*deg2rad, g.XBounds[j+1]*deg2rad
			if lon1 < lon0 {
				lon0, lon1 = lon1, lon0
			}
			rows[i][j] = math.Abs(bandFactor * (lon1 - lon0))
		}
	}
	return rows
}

// CellArea returns the (possibly user-overridden) area of cell (i,j) in
// square metres.
func (g *Grid) CellArea(i, j int) float64 { return g.area[i][j] }

// IsActive reports whether cell (i,j) participates in the model
// (unmasked, or no mask declared).
func (g *Grid) IsActive(i, j int) bool {
	if g.Mask == nil {
		return true
	}
	return g.Mask[i][j]
}

// Shape returns (ny, nx).
func (g *Grid) Shape() (int, int) { return g.NY, g.NX }
