// Package units implements the in-process conversion arithmetic: linear
// scaling for length and mass, affine maps for temperature.
package units

import (
	"fmt"
	"math"
	"sort"
)

// Category groups units that can be converted into each other.
type Category string

const (
	Length      Category = "length"
	Mass        Category = "mass"
	Temperature Category = "temperature"
)

// Factors to the base unit of each linear category (meter, kilogram).
var (
	lengthFactors = map[string]float64{
		"meter":      1,
		"feet":       0.3048,
		"kilometer":  1000,
		"mile":       1609.344,
		"centimeter": 0.01,
		"inch":       0.0254,
		"yard":       0.9144,
	}
	massFactors = map[string]float64{
		"kilogram": 1,
		"gram":     0.001,
		"pound":    0.453592,
		"ounce":    0.0283495,
		"ton":      1000,
		"stone":    6.35029,
	}
	temperatureUnits = map[string]struct{}{
		"celsius":    {},
		"fahrenheit": {},
		"kelvin":     {},
	}
)

// validationError reports a caller mistake (unknown unit, category mismatch).
type validationError struct{ msg string }

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return 400 }

// ErrValidation constructs a validation error with the given message.
func ErrValidation(format string, args ...any) error {
	return validationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// CategoryOf returns the category of unit, or false if the unit is unknown.
func CategoryOf(unit string) (Category, bool) {
	if _, ok := lengthFactors[unit]; ok {
		return Length, true
	}
	if _, ok := massFactors[unit]; ok {
		return Mass, true
	}
	if _, ok := temperatureUnits[unit]; ok {
		return Temperature, true
	}
	return "", false
}

// SameCategory reports whether both units are known and share a category.
func SameCategory(from, to string) bool {
	cf, ok := CategoryOf(from)
	if !ok {
		return false
	}
	ct, ok := CategoryOf(to)
	return ok && cf == ct
}

// Convert converts value from one unit to another within one category.
// A result that overflows float64 is a validation error.
func Convert(value float64, from, to string) (float64, error) {
	cat, ok := CategoryOf(from)
	if !ok {
		return 0, ErrValidation("unsupported unit: %s", from)
	}
	if ct, ok := CategoryOf(to); !ok || ct != cat {
		return 0, ErrValidation("cannot convert between different unit categories: %s to %s", from, to)
	}
	var r float64
	switch cat {
	case Length:
		r = value * lengthFactors[from] / lengthFactors[to]
	case Mass:
		r = value * massFactors[from] / massFactors[to]
	default:
		r = convertTemperature(value, from, to)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, ErrValidation("result out of range")
	}
	return r, nil
}

// convertTemperature goes through celsius. Units are already validated.
func convertTemperature(value float64, from, to string) float64 {
	if from == to {
		return value
	}
	var c float64
	switch from {
	case "celsius":
		c = value
	case "fahrenheit":
		c = (value - 32) * 5 / 9
	case "kelvin":
		c = value - 273.15
	}
	switch to {
	case "fahrenheit":
		return c*9/5 + 32
	case "kelvin":
		return c + 273.15
	default:
		return c
	}
}

// Units returns the sorted unit names of every category.
func Units() map[Category][]string {
	return map[Category][]string{
		Length:      sortedKeys(lengthFactors),
		Mass:        sortedKeys(massFactors),
		Temperature: sortedKeys(temperatureUnits),
	}
}

// All returns every known unit name, sorted.
func All() []string {
	var out []string
	for _, us := range Units() {
		out = append(out, us...)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
