// Package export writes clearing recommendations to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/gridmatch/core/model"
)

var csvHeader = []string{
	"market_id", "time_slot", "bid_id", "buyer", "offer_id", "seller", "selected_energy", "trade_rate",
}

// WriteJSON writes the recommendations to w as an indented JSON array. A nil
// slice is written as [].
func WriteJSON(w io.Writer, recs []model.Recommendation) error {
	if recs == nil {
		recs = []model.Recommendation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes one row per recommendation. Payloads are flattened to their
// identifying fields.
func WriteCSV(w io.Writer, recs []model.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.MarketID,
			r.TimeSlot,
			field(r.Bid, "id"),
			field(r.Bid, "buyer"),
			field(r.Offer, "id"),
			field(r.Offer, "seller"),
			strconv.FormatFloat(r.SelectedEnergy, 'f', -1, 64),
			strconv.FormatFloat(r.TradeRate, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func field(p model.Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
