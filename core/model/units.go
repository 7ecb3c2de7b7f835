package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// EnergyUnitFactor converts the external energy unit into the smallest
// tradable increment used by the clearing strategies.
const EnergyUnitFactor = 1000

// MaxEnergy is the largest representable internal energy quantity.
const MaxEnergy Energy = math.MaxInt64

// Energy is a quantity expressed in the internal fixed unit.
type Energy int64

var (
	energyFactor = decimal.NewFromInt(EnergyUnitFactor)
	maxEnergy    = decimal.NewFromInt(int64(MaxEnergy))
)

// ToEnergy converts an external energy value into the internal unit. The
// result is rounded to the nearest increment and clamped to MaxEnergy, so very
// large inputs are silently truncated. Non-finite or non-positive inputs map
// to zero.
func ToEnergy(external float64) Energy {
	if math.IsNaN(external) || external <= 0 {
		return 0
	}
	if math.IsInf(external, 1) {
		return MaxEnergy
	}
	d := decimal.NewFromFloat(external).Mul(energyFactor).Round(0)
	if d.GreaterThanOrEqual(maxEnergy) {
		return MaxEnergy
	}
	return Energy(d.IntPart())
}

// External converts the quantity back into the external energy unit.
func (e Energy) External() float64 {
	// exponent -3 mirrors EnergyUnitFactor
	return decimal.New(int64(e), -3).InexactFloat64()
}

// Min returns the smaller of two quantities.
func (e Energy) Min(o Energy) Energy {
	if o < e {
		return o
	}
	return e
}
