package scoring

// DisclosureLimit caps how many ranked vendors the buyer ever sees.
const DisclosureLimit = 10

// Disclosure is the truncated ranking exposed to the buyer, with the shown
// and total candidate counts the contract requires once truncation occurs.
type Disclosure struct {
	Mode        Mode          `json:"mode"`
	Results     []ScoreResult `json:"results"`
	Shown       int           `json:"shown"`
	Total       int           `json:"total"`
	LowestPrice float64       `json:"lowest_price"`
}

// Disclose truncates a ranked result set to the disclosure limit.
func Disclose(mode Mode, ranked []ScoreResult) Disclosure {
	total := len(ranked)
	if len(ranked) > DisclosureLimit {
		ranked = ranked[:DisclosureLimit]
	}

	d := Disclosure{Mode: mode, Results: ranked, Shown: len(ranked), Total: total}
	for i, r := range ranked {
		if i == 0 || r.TotalPrice < d.LowestPrice {
			d.LowestPrice = r.TotalPrice
		}
	}
	return d
}

// QualityLabel maps a 0-10 display score to the banding shown next to it.
func QualityLabel(displayScore float64) string {
	switch {
	case displayScore >= 9:
		return "Excellent"
	case displayScore >= 8:
		return "Very good"
	case displayScore >= 7:
		return "Good"
	default:
		return "Acceptable"
	}
}
