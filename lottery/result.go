// Package lottery models draw results from the upstream data provider
// and fetches them over HTTP.
package lottery

import (
	"encoding/json"
	"fmt"
)

// PrizeTier identifies a prize band in a draw. The set is closed: the
// upstream payload keys prize arrays by these names, and anything else
// is dropped on decode.
type PrizeTier string

const (
	TierFirst       PrizeTier = "1st"
	TierSecond      PrizeTier = "2nd"
	TierThird       PrizeTier = "3rd"
	TierFourth      PrizeTier = "4th"
	TierFifth       PrizeTier = "5th"
	TierSixth       PrizeTier = "6th"
	TierSeventh     PrizeTier = "7th"
	TierEighth      PrizeTier = "8th"
	TierNinth       PrizeTier = "9th"
	TierConsolation PrizeTier = "consolation"
)

// TicketTiers are the tiers whose winning tickets appear inside the
// prizes object. The first prize is a structured record of its own.
var TicketTiers = []PrizeTier{
	TierSecond, TierThird, TierFourth, TierFifth, TierSixth,
	TierSeventh, TierEighth, TierNinth, TierConsolation,
}

// Valid reports whether t names a known prize tier.
func (t PrizeTier) Valid() bool {
	if t == TierFirst {
		return true
	}
	for _, tier := range TicketTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// FirstPrize is the structured first-prize record.
type FirstPrize struct {
	Ticket   string `json:"ticket"`
	Location string `json:"location"`
	Agent    string `json:"agent"`
	AgencyNo string `json:"agency_no"`
}

// Prizes holds the lower-tier winning tickets and the per-tier prize
// amounts. On the wire this is a single object keyed by tier name plus
// an "amounts" object and an optional "guess" series.
type Prizes struct {
	Tickets map[PrizeTier][]string
	Amounts map[PrizeTier]string
	Guess   []string
}

func (p *Prizes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("prizes object: %w", err)
	}

	p.Tickets = make(map[PrizeTier][]string)
	p.Amounts = make(map[PrizeTier]string)
	p.Guess = nil

	for key, value := range raw {
		switch {
		case key == "amounts":
			var amounts map[string]string
			if err := json.Unmarshal(value, &amounts); err != nil {
				return fmt.Errorf("prize amounts: %w", err)
			}
			for tier, amount := range amounts {
				if PrizeTier(tier).Valid() {
					p.Amounts[PrizeTier(tier)] = amount
				}
			}
		case key == "guess":
			if err := json.Unmarshal(value, &p.Guess); err != nil {
				return fmt.Errorf("guess series: %w", err)
			}
		case PrizeTier(key).Valid() && key != string(TierFirst):
			var tickets []string
			if err := json.Unmarshal(value, &tickets); err != nil {
				return fmt.Errorf("%s prize tickets: %w", key, err)
			}
			p.Tickets[PrizeTier(key)] = tickets
		}
		// Unknown keys are dropped rather than round-tripped.
	}
	return nil
}

func (p Prizes) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Tickets)+2)
	for tier, tickets := range p.Tickets {
		out[string(tier)] = tickets
	}
	amounts := make(map[string]string, len(p.Amounts))
	for tier, amount := range p.Amounts {
		amounts[string(tier)] = amount
	}
	out["amounts"] = amounts
	if len(p.Guess) > 0 {
		out["guess"] = p.Guess
	}
	return json.Marshal(out)
}

// Result is a single published draw.
type Result struct {
	DrawDate string     `json:"draw_date"` // YYYY-MM-DD
	DrawName string     `json:"draw_name"` // e.g. "Akshaya"
	DrawCode string     `json:"draw_code"` // e.g. "AK-655"
	First    FirstPrize `json:"first"`
	Prizes   Prizes     `json:"prizes"`
}

// Key derives a stable unique identifier for a draw; the provider does
// not supply a primary key.
func (r Result) Key() string {
	return r.DrawDate + "-" + r.DrawCode
}

// HistoryPage is one page of the provider's paginated history feed.
type HistoryPage struct {
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Items  []Result `json:"items"`
}
