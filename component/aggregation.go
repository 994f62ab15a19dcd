package component

import "fmt"

// Aggregation is the reduction applied to a time- or space-oversampled
// quantity: mean, sum, min, max, or (for records only) point.
type Aggregation int

const (
	Mean Aggregation = iota
	Sum
	Min
	Max
	Point
)

func (a Aggregation) String() string {
	switch a {
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	case Point:
		return "point"
	default:
		return "unknown"
	}
}

// ParseAggregation resolves a method name, including the Recorder's
// documented synonyms (average->mean, cumulative->sum,
// instantaneous->point, minimum->min, maximum->max).
func ParseAggregation(name string) (Aggregation, error) {
	switch name {
	case "mean", "average":
		return Mean, nil
	case "sum", "cumulative":
		return Sum, nil
	case "min", "minimum":
		return Min, nil
	case "max", "maximum":
		return Max, nil
	case "point", "instantaneous":
		return Point, nil
	default:
		return 0, fmt.Errorf("component: unknown aggregation method %q", name)
	}
}
