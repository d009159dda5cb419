package scoring

import "github.com/Asclepia-Market/Procure/internal/store"

// SubScores holds the four normalized criteria for one bid, each in [0,1].
type SubScores struct {
	Cost        float64 `json:"cost"`
	Delivery    float64 `json:"delivery"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
}

// bidBounds captures the extremes of the bid set under comparison.
type bidBounds struct {
	maxCost     float64
	costRange   float64
	maxDelivery float64
}

func boundsOf(quotations []*store.Quotation) bidBounds {
	maxCost := quotations[0].TotalPrice
	minCost := quotations[0].TotalPrice
	maxDelivery := float64(quotations[0].DeliveryDays)
	for _, q := range quotations[1:] {
		if q.TotalPrice > maxCost {
			maxCost = q.TotalPrice
		}
		if q.TotalPrice < minCost {
			minCost = q.TotalPrice
		}
		if d := float64(q.DeliveryDays); d > maxDelivery {
			maxDelivery = d
		}
	}
	costRange := maxCost - minCost
	if costRange == 0 {
		// All bids priced identically; any divisor keeps S_cost at 0 for all.
		costRange = 1
	}
	return bidBounds{maxCost: maxCost, costRange: costRange, maxDelivery: maxDelivery}
}

// normalize turns one raw bid into sub-scores relative to the bid set.
// The cheapest bid scores 1.0 on cost, the most expensive 0.0; quality and
// reliability both derive from the vendor rating captured at submission.
func normalize(q *store.Quotation, b bidBounds) SubScores {
	return SubScores{
		Cost:        (b.maxCost - q.TotalPrice) / b.costRange,
		Delivery:    1 - float64(q.DeliveryDays)/b.maxDelivery,
		Quality:     q.VendorRating / 5,
		Reliability: q.VendorRating / 5,
	}
}
