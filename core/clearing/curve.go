package clearing

import (
	"github.com/kilianp07/gridmatch/core/book"
	"github.com/kilianp07/gridmatch/core/model"
)

// Step is one order on a cumulative supply or demand curve.
type Step struct {
	Rate       float64
	Cumulative model.Energy
}

// Curve builds the cumulative step curve of entries already sorted in rate
// priority. Cumulative quantities saturate at model.MaxEnergy.
func Curve(entries []*book.Entry) []Step {
	steps := make([]Step, 0, len(entries))
	var cum model.Energy
	for _, e := range entries {
		cum = saturatingAdd(cum, e.Remaining)
		steps = append(steps, Step{Rate: e.Order.Rate, Cumulative: cum})
	}
	return steps
}

func saturatingAdd(a, b model.Energy) model.Energy {
	if a > model.MaxEnergy-b {
		return model.MaxEnergy
	}
	return a + b
}

// Clearing is the intersection of a demand and a supply curve.
type Clearing struct {
	// Price is the rate of the last accepted demand step.
	Price float64
	// Quantity is the total energy traded at Price.
	Quantity model.Energy
}

// Intersect walks the demand curve (rates descending) and the supply curve
// (rates ascending) while the demand rate covers the supply rate. It reports
// false when the curves never cross.
func Intersect(demand, supply []Step) (Clearing, bool) {
	var c Clearing
	crossed := false
	i, j := 0, 0
	for i < len(demand) && j < len(supply) && demand[i].Rate >= supply[j].Rate {
		crossed = true
		c.Price = demand[i].Rate
		d, s := demand[i].Cumulative, supply[j].Cumulative
		switch {
		case d < s:
			c.Quantity = d
			i++
		case d > s:
			c.Quantity = s
			j++
		default:
			c.Quantity = d
			i++
			j++
		}
	}
	return c, crossed
}
