// Package units converts the platform's heterogeneous weight and dimension
// units to the carrier's canonical units: kilograms and centimeters.
package units

import "github.com/angelmondragon/shipbridge-backend/pkg/types"

// WeightKg converts a weight measure to kilograms. A nil measure, zero value
// or unknown unit never fails: missing physical data degrades to zero (or to
// the value as-is for an unrecognized unit tag).
func WeightKg(w *types.Measure) float64 {
	if w == nil || w.Value == 0 {
		return 0
	}
	switch w.Unit {
	case "g":
		return w.Value / 1000
	case "mg":
		return w.Value / 1000000
	default:
		// "kg" or absent: already canonical
		return w.Value
	}
}

// LengthCm converts a linear dimension to centimeters.
func LengthCm(d *types.Measure) float64 {
	if d == nil || d.Value == 0 {
		return 0
	}
	switch d.Unit {
	case "m":
		return d.Value * 100
	case "mm":
		return d.Value / 10
	default:
		// "cm" or absent: already canonical
		return d.Value
	}
}

// DimensionsCm converts all three sides, tolerating absent ones.
func DimensionsCm(d *types.Dimensions) (height, width, length float64) {
	if d == nil {
		return 0, 0, 0
	}
	return LengthCm(d.Height), LengthCm(d.Width), LengthCm(d.Length)
}
