package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Side distinguishes buy orders from sell orders.
type Side int

const (
	Bid Side = iota
	Offer
)

// String returns a human-readable representation of the side.
func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Offer:
		return "offer"
	default:
		return "unknown"
	}
}

// agentField returns the payload key holding the submitting agent.
func (s Side) agentField() string {
	if s == Bid {
		return "buyer"
	}
	return "seller"
}

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidEnergy = errors.New("energy must be a positive number")
	ErrInvalidRate   = errors.New("energy_rate must be a non-negative number")
	ErrInvalidField  = errors.New("invalid field type")
)

// Payload is the external representation of a bid or offer. It is echoed back
// untouched in recommendations.
type Payload map[string]any

// Order is the immutable clearing view of a bid or offer.
type Order struct {
	ID       string
	Side     Side
	TimeSlot string
	AgentID  string
	Cluster  string // empty means the default topology node
	Energy   Energy
	Rate     float64
	Seq      int // submission index, used to break rate ties
	Payload  Payload
}

// OrderFromPayload builds an Order from its external payload. Only type
// coercion and the positive energy check are performed; domain bounds are the
// responsibility of upstream validation.
func OrderFromPayload(side Side, slot string, seq int, p Payload) (Order, error) {
	id, err := requiredString(p, "id")
	if err != nil {
		return Order{}, err
	}
	agent, err := requiredString(p, side.agentField())
	if err != nil {
		return Order{}, err
	}
	rawEnergy, ok := p["energy"]
	if !ok || rawEnergy == nil {
		return Order{}, fmt.Errorf("energy: %w", ErrMissingField)
	}
	energyValue, ok := toFloat(rawEnergy)
	if !ok || math.IsNaN(energyValue) || energyValue <= 0 {
		return Order{}, fmt.Errorf("%v: %w", rawEnergy, ErrInvalidEnergy)
	}
	energy := ToEnergy(energyValue)
	if energy <= 0 {
		// below the smallest tradable increment
		return Order{}, fmt.Errorf("%v: %w", rawEnergy, ErrInvalidEnergy)
	}
	rawRate, ok := p["energy_rate"]
	if !ok || rawRate == nil {
		return Order{}, fmt.Errorf("energy_rate: %w", ErrMissingField)
	}
	rate, ok := toFloat(rawRate)
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return Order{}, fmt.Errorf("%v: %w", rawRate, ErrInvalidRate)
	}
	cluster, err := clusterOf(p)
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:       id,
		Side:     side,
		TimeSlot: slot,
		AgentID:  agent,
		Cluster:  cluster,
		Energy:   energy,
		Rate:     rate,
		Seq:      seq,
		Payload:  p,
	}, nil
}

func requiredString(p Payload, key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%s: %w", key, ErrMissingField)
	}
	s, ok := toString(v)
	if !ok || s == "" {
		return "", fmt.Errorf("%s: %w", key, ErrInvalidField)
	}
	return s, nil
}

// clusterOf reads the optional attributes.cluster tag.
func clusterOf(p Payload) (string, error) {
	attrs, ok := p["attributes"]
	if !ok || attrs == nil {
		return "", nil
	}
	m, ok := attrs.(map[string]any)
	if !ok {
		if pm, isPayload := attrs.(Payload); isPayload {
			m = pm
		} else {
			return "", fmt.Errorf("attributes: %w", ErrInvalidField)
		}
	}
	c, ok := m["cluster"]
	if !ok || c == nil {
		return "", nil
	}
	s, ok := toString(c)
	if !ok {
		return "", fmt.Errorf("attributes.cluster: %w", ErrInvalidField)
	}
	return s, nil
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
