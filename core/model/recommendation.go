package model

// Recommendation is the externally visible record of one completed match.
type Recommendation struct {
	MarketID string `json:"market_id"`
	TimeSlot string `json:"time_slot"`
	// MatchingRequirements is reserved and currently always empty.
	MatchingRequirements map[string]any `json:"matching_requirements"`
	Bid                  Payload        `json:"bid"`
	Offer                Payload        `json:"offer"`
	SelectedEnergy       float64        `json:"selected_energy"`
	TradeRate            float64        `json:"trade_rate"`
}
