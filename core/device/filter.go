package device

import (
	"fmt"

	"github.com/kilianp07/gridmatch/core/model"
)

// KindAttribute is the attributes key carrying the device kind of an order.
const KindAttribute = "device_type"

// KindOf reads the device kind tag of an order payload.
func KindOf(p model.Payload) (Kind, bool) {
	var attrs map[string]any
	switch a := p["attributes"].(type) {
	case map[string]any:
		attrs = a
	case model.Payload:
		attrs = a
	default:
		return "", false
	}
	k, ok := attrs[KindAttribute].(string)
	if !ok || k == "" {
		return "", false
	}
	return Kind(k), true
}

// Filter returns an order check enforcing limits per device kind. Orders
// without a kind tag pass untouched; kinds missing from limits use
// DefaultLimits.
func Filter(limits map[Kind]Limits) (func(model.Order) error, error) {
	validators := make(map[Kind]Validator)
	for kind, l := range DefaultLimits() {
		if custom, ok := limits[kind]; ok {
			l = custom
		}
		v, err := ValidatorFor(kind, l)
		if err != nil {
			return nil, err
		}
		validators[kind] = v
	}
	for kind := range limits {
		if _, ok := validators[kind]; !ok {
			return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
		}
	}
	return func(o model.Order) error {
		kind, ok := KindOf(o.Payload)
		if !ok {
			return nil
		}
		v, ok := validators[kind]
		if !ok {
			return fmt.Errorf("%q: %w", kind, ErrUnknownKind)
		}
		return check(v, o)
	}, nil
}
