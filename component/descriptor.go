package component

import "github.com/maseology/cm4go/dataset"

// Category tags one of the six pluggable scientific components.
type Category string

const (
	SurfaceLayer         Category = "surfacelayer"
	SubSurface           Category = "subsurface"
	OpenWater            Category = "openwater"
	NutrientSurfaceLayer Category = "nutrientsurfacelayer"
	NutrientSubSurface   Category = "nutrientsubsurface"
	NutrientOpenWater    Category = "nutrientopenwater"
)

// DeclaredOrder is the fixed firing order within one base-period
// iteration: an upstream category's outwards become visible to a
// downstream category at the same tick; the reverse direction lags by
// one tick. See spec.md §4.4 "Ordering".
var DeclaredOrder = []Category{
	SurfaceLayer, SubSurface, OpenWater,
	NutrientSurfaceLayer, NutrientSubSurface, NutrientOpenWater,
}

// Direction is inward (consumed) or outward (produced) for a transfer.
type Direction int

const (
	Inward Direction = iota
	Outward
)

// TransferSpec names a variable flowing between two components: inward
// on the consumer side, outward on the producer side.
type TransferSpec struct {
	Name        string
	Units       string
	Direction   Direction
	Aggregation Aggregation // mean, sum, min, or max — never Point
	// Peers is the single producing category for an inward, or the list
	// of consuming categories for an outward.
	Peers []Category
	// Optional marks an inward whose producer may legitimately not
	// exist; the Exchanger then supplies a zero field instead of
	// failing wiring. Meaningless for outwards.
	Optional bool
}

// InputSpec declares one of a component's dynamic, static, or
// climatologic inputs.
type InputSpec struct {
	Name      string
	Units     string
	Kind      dataset.Kind
	Frequency dataset.ClimatologyFrequency // only meaningful when Kind == KindClimatologic
}

// ParameterSpec declares a component parameter with an optional valid
// range.
type ParameterSpec struct {
	Name    string
	Units   string
	Range   *[2]float64
	IsArray bool // per-cell array rather than a scalar broadcast
}

// ConstantSpec declares a component constant with a mandatory default.
type ConstantSpec struct {
	Name    string
	Units   string
	Default float64
}

// DivisionDim is one axis of a state's extra ("division") dimensionality:
// either a fixed integer, or the name of a constant resolved at
// initialise time.
type DivisionDim struct {
	Fixed        int
	ConstantName string
}

// Resolve returns the division count: the value of ConstantName in
// constants whenever ConstantName is set (Fixed is then ignored),
// otherwise Fixed.
func (d DivisionDim) Resolve(constants map[string]float64) int {
	if d.ConstantName != "" {
		return int(constants[d.ConstantName])
	}
	return d.Fixed
}

// StateSpec declares one state variable, optionally stratified across
// one or more division axes (e.g. vertical soil layers).
type StateSpec struct {
	Name      string
	Units     string
	Divisions []DivisionDim
}

// OutputSpec declares a component output.
type OutputSpec struct {
	Name  string
	Units string
}

// Descriptor is a component's complete static interface: its declared
// inwards, outwards, inputs, parameters, constants, states and
// outputs, plus the flags dictating which optional grid metadata it
// needs.
type Descriptor struct {
	Category Category

	Inwards  []TransferSpec
	Outwards []TransferSpec

	Inputs     []InputSpec
	Parameters []ParameterSpec
	Constants  []ConstantSpec
	States     []StateSpec
	Outputs    []OutputSpec

	SolverHistory int // K; ring buffer depth is K+1

	RequiresLandSeaMask  bool
	RequiresFlowDirection bool
	RequiresCellArea      bool
}

// OutwardNames lists the names of every declared outward transfer.
func (d *Descriptor) OutwardNames() []string {
	out := make([]string, len(d.Outwards))
	for i, t := range d.Outwards {
		out[i] = t.Name
	}
	return out
}

// InwardNames lists the names of every declared inward transfer.
func (d *Descriptor) InwardNames() []string {
	out := make([]string, len(d.Inwards))
	for i, t := range d.Inwards {
		out[i] = t.Name
	}
	return out
}
