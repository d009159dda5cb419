package scoring

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/store"
)

// ErrEmptyCandidateSet is returned when evaluation is invoked with zero
// quotations. The engine reports this explicitly rather than emit NaN scores.
var ErrEmptyCandidateSet = errors.New("no quotations to evaluate")

// ScoreResult captures the complete scoring output for a single quotation.
// Derived on every evaluation view, never persisted.
type ScoreResult struct {
	QuotationID     uuid.UUID `json:"quotation_id"`
	VendorID        uuid.UUID `json:"vendor_id"`
	VendorName      string    `json:"vendor_name"`
	VendorRating    float64   `json:"vendor_rating"`
	CompletedOrders int       `json:"completed_orders"`
	TotalPrice      float64   `json:"total_price"`
	DeliveryDays    int       `json:"delivery_days"`
	SubScores       SubScores `json:"sub_scores"`
	RawScore        float64   `json:"raw_score"`
	DisplayScore    float64   `json:"display_score"`
	MatchPercentage int       `json:"match_percentage"`
	Rank            int       `json:"rank"`
}

// Scorer combines normalized sub-scores with a weight profile into one
// comparable scalar per quotation.
type Scorer struct {
	logger *slog.Logger
}

func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Evaluate scores and ranks a quotation set under the given mode. The result
// is sorted by raw score descending; exact ties keep submission order.
func (s *Scorer) Evaluate(quotations []*store.Quotation, mode Mode) ([]ScoreResult, error) {
	if len(quotations) == 0 {
		return nil, ErrEmptyCandidateSet
	}
	w, err := ProfileFor(mode)
	if err != nil {
		return nil, err
	}

	bounds := boundsOf(quotations)
	results := make([]ScoreResult, 0, len(quotations))
	for _, q := range quotations {
		sub := normalize(q, bounds)
		raw := w.Cost*sub.Cost + w.Delivery*sub.Delivery +
			w.Quality*sub.Quality + w.Reliability*sub.Reliability

		results = append(results, ScoreResult{
			QuotationID:     q.ID,
			VendorID:        q.VendorID,
			VendorName:      q.VendorName,
			VendorRating:    q.VendorRating,
			CompletedOrders: CompletedOrders(q.ID.String()),
			TotalPrice:      q.TotalPrice,
			DeliveryDays:    q.DeliveryDays,
			SubScores:       sub,
			RawScore:        raw,
			DisplayScore:    raw * 10,
			MatchPercentage: int(math.Round(raw * 100)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RawScore > results[j].RawScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	s.logger.Debug("evaluated quotations",
		"count", len(results),
		"mode", string(mode),
		"top_match", results[0].MatchPercentage,
	)
	return results, nil
}
