// Package device holds the upstream range checks applied to order parameters
// per device kind. The clearing strategies never call it; it is wired into
// the batch runner only as an optional order filter.
package device

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/gridmatch/core/model"
)

// Kind tags the device that submitted an order.
type Kind string

const (
	KindLoad        Kind = "load"
	KindPV          Kind = "pv"
	KindStorage     Kind = "storage"
	KindMarketMaker Kind = "market_maker"
)

var (
	ErrUnknownKind  = errors.New("unknown device kind")
	ErrWrongSide    = errors.New("device kind cannot submit this side")
	ErrOutOfRange   = errors.New("value out of range")
	ErrInvalidRange = errors.New("invalid range")
)

// Range is an inclusive interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) check(name string, v float64) error {
	if math.IsNaN(v) || v < r.Min || v > r.Max {
		return fmt.Errorf("%s %v not in [%v, %v]: %w", name, v, r.Min, r.Max, ErrOutOfRange)
	}
	return nil
}

// Limits bounds the rate and energy of the orders of one device kind.
type Limits struct {
	Rate   Range `json:"rate"`
	Energy Range `json:"energy"`
}

// Validate checks that both ranges are well formed.
func (l Limits) Validate() error {
	for _, r := range []Range{l.Rate, l.Energy} {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max || r.Min < 0 {
			return fmt.Errorf("[%v, %v]: %w", r.Min, r.Max, ErrInvalidRange)
		}
	}
	return nil
}

// DefaultLimits returns the built-in limits. Rates are in the market currency
// per external energy unit.
func DefaultLimits() map[Kind]Limits {
	return map[Kind]Limits{
		KindLoad:        {Rate: Range{0, 10000}, Energy: Range{0, 1e5}},
		KindPV:          {Rate: Range{0, 10000}, Energy: Range{0, 1e5}},
		KindStorage:     {Rate: Range{0, 10000}, Energy: Range{0, 1e6}},
		KindMarketMaker: {Rate: Range{0, 10000}, Energy: Range{0, math.MaxFloat64}},
	}
}

// Validator is the capability set every device kind provides.
type Validator interface {
	ValidateRate(side model.Side, rate float64) error
	ValidateEnergy(side model.Side, energy float64) error
}

// consumer only buys.
type consumer struct{ limits Limits }

func (c consumer) ValidateRate(side model.Side, rate float64) error {
	if side != model.Bid {
		return fmt.Errorf("load %s: %w", side, ErrWrongSide)
	}
	return c.limits.Rate.check("energy_rate", rate)
}

func (c consumer) ValidateEnergy(side model.Side, energy float64) error {
	if side != model.Bid {
		return fmt.Errorf("load %s: %w", side, ErrWrongSide)
	}
	return c.limits.Energy.check("energy", energy)
}

// producer only sells.
type producer struct{ limits Limits }

func (p producer) ValidateRate(side model.Side, rate float64) error {
	if side != model.Offer {
		return fmt.Errorf("pv %s: %w", side, ErrWrongSide)
	}
	return p.limits.Rate.check("energy_rate", rate)
}

func (p producer) ValidateEnergy(side model.Side, energy float64) error {
	if side != model.Offer {
		return fmt.Errorf("pv %s: %w", side, ErrWrongSide)
	}
	return p.limits.Energy.check("energy", energy)
}

// prosumer trades on both sides.
type prosumer struct{ limits Limits }

func (p prosumer) ValidateRate(_ model.Side, rate float64) error {
	return p.limits.Rate.check("energy_rate", rate)
}

func (p prosumer) ValidateEnergy(_ model.Side, energy float64) error {
	return p.limits.Energy.check("energy", energy)
}

// ValidatorFor returns the validator of kind bounded by limits.
func ValidatorFor(kind Kind, limits Limits) (Validator, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("%s limits: %w", kind, err)
	}
	switch kind {
	case KindLoad:
		return consumer{limits}, nil
	case KindPV:
		return producer{limits}, nil
	case KindStorage, KindMarketMaker:
		return prosumer{limits}, nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
}

// Validate runs both checks of kind against the order using DefaultLimits.
func Validate(kind Kind, o model.Order) error {
	v, err := ValidatorFor(kind, DefaultLimits()[kind])
	if err != nil {
		return err
	}
	return check(v, o)
}

func check(v Validator, o model.Order) error {
	if err := v.ValidateRate(o.Side, o.Rate); err != nil {
		return err
	}
	return v.ValidateEnergy(o.Side, o.Energy.External())
}
