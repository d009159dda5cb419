package scoring

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quote(price float64, days int, rating float64) *store.Quotation {
	return &store.Quotation{
		ID:           uuid.New(),
		VendorID:     uuid.New(),
		TotalPrice:   price,
		DeliveryDays: days,
		VendorRating: rating,
		Status:       store.QuotationPending,
	}
}

func TestAllProfilesSumToOne(t *testing.T) {
	for _, mode := range Modes() {
		p, err := ProfileFor(mode)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", mode, err)
		}
		if math.Abs(p.Sum()-1.0) > 0.001 {
			t.Errorf("%s: weights sum to %f, expected 1.0", mode, p.Sum())
		}
	}
}

func TestParseMode(t *testing.T) {
	t.Run("known", func(t *testing.T) {
		m, err := ParseMode("emergency")
		if err != nil || m != ModeEmergency {
			t.Errorf("expected emergency, got %s (%v)", m, err)
		}
	})
	t.Run("empty defaults to balanced", func(t *testing.T) {
		m, err := ParseMode("")
		if err != nil || m != ModeBalanced {
			t.Errorf("expected balanced, got %s (%v)", m, err)
		}
	})
	t.Run("unknown rejected", func(t *testing.T) {
		if _, err := ParseMode("cheapest"); err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}

func TestSubScoresWithinUnitInterval(t *testing.T) {
	quotations := []*store.Quotation{
		quote(1200, 3, 5.0),
		quote(9800, 14, 0.5),
		quote(4300, 1, 3.2),
		quote(4300, 30, 4.1),
	}
	scorer := NewScorer(discardLogger())
	results, err := scorer.Evaluate(quotations, ModeBalanced)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		for name, v := range map[string]float64{
			"cost":        r.SubScores.Cost,
			"delivery":    r.SubScores.Delivery,
			"quality":     r.SubScores.Quality,
			"reliability": r.SubScores.Reliability,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s sub-score %f outside [0,1] for vendor %s", name, v, r.VendorID)
			}
		}
	}
}

func TestIdenticalPricesNoDivisionByZero(t *testing.T) {
	quotations := []*store.Quotation{
		quote(5000, 7, 4.0),
		quote(5000, 5, 4.5),
		quote(5000, 9, 3.0),
	}
	scorer := NewScorer(discardLogger())
	results, err := scorer.Evaluate(quotations, ModeCost)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if math.IsNaN(r.RawScore) || math.IsInf(r.RawScore, 0) {
			t.Fatalf("raw score is %f with equal prices", r.RawScore)
		}
		if r.SubScores.Cost != 0 {
			t.Errorf("expected identical cost sub-score 0, got %f", r.SubScores.Cost)
		}
	}
}

func TestEvaluateEmptySet(t *testing.T) {
	scorer := NewScorer(discardLogger())
	if _, err := scorer.Evaluate(nil, ModeBalanced); err != ErrEmptyCandidateSet {
		t.Errorf("expected ErrEmptyCandidateSet, got %v", err)
	}
}

func TestRankingStableOnTies(t *testing.T) {
	// Same price, delivery, and rating everywhere: every raw score ties, so
	// submission order must survive the sort.
	first := quote(3000, 5, 4.0)
	second := quote(3000, 5, 4.0)
	third := quote(3000, 5, 4.0)

	scorer := NewScorer(discardLogger())
	results, err := scorer.Evaluate([]*store.Quotation{first, second, third}, ModeBalanced)
	if err != nil {
		t.Fatal(err)
	}
	order := []uuid.UUID{first.ID, second.ID, third.ID}
	for i, r := range results {
		if r.QuotationID != order[i] {
			t.Errorf("position %d: expected %s, got %s", i, order[i], r.QuotationID)
		}
		if r.Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, r.Rank)
		}
	}
}

func TestRankingDescending(t *testing.T) {
	quotations := []*store.Quotation{
		quote(9000, 20, 2.0),
		quote(2000, 3, 4.9),
		quote(5000, 10, 3.5),
	}
	scorer := NewScorer(discardLogger())
	results, err := scorer.Evaluate(quotations, ModeBalanced)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].RawScore > results[i-1].RawScore {
			t.Errorf("results not sorted descending at position %d", i)
		}
	}
}

func TestBalancedScenario(t *testing.T) {
	// Three bids at {2500,2800,3000}, delivery {7,5,10}, ratings {4.8,4.5,4.7}:
	// costRange=500, maxDelivery=10. Vendor A scores
	// 0.3*1.0 + 0.2*0.3 + 0.25*0.96 + 0.25*0.96 = 0.84.
	a := quote(2500, 7, 4.8)
	b := quote(2800, 5, 4.5)
	c := quote(3000, 10, 4.7)

	scorer := NewScorer(discardLogger())
	results, err := scorer.Evaluate([]*store.Quotation{a, b, c}, ModeBalanced)
	if err != nil {
		t.Fatal(err)
	}

	var resA *ScoreResult
	for i := range results {
		if results[i].QuotationID == a.ID {
			resA = &results[i]
		}
	}
	if resA == nil {
		t.Fatal("vendor A missing from results")
	}

	if math.Abs(resA.SubScores.Cost-1.0) > 1e-9 {
		t.Errorf("S_cost: expected 1.0, got %f", resA.SubScores.Cost)
	}
	if math.Abs(resA.SubScores.Delivery-0.3) > 1e-9 {
		t.Errorf("S_delivery: expected 0.3, got %f", resA.SubScores.Delivery)
	}
	if math.Abs(resA.SubScores.Quality-0.96) > 1e-9 {
		t.Errorf("S_quality: expected 0.96, got %f", resA.SubScores.Quality)
	}
	if math.Abs(resA.RawScore-0.84) > 1e-9 {
		t.Errorf("raw score: expected 0.84, got %f", resA.RawScore)
	}
	if resA.MatchPercentage != 84 {
		t.Errorf("match percentage: expected 84, got %d", resA.MatchPercentage)
	}
	if math.Abs(resA.DisplayScore-8.4) > 1e-9 {
		t.Errorf("display score: expected 8.4, got %f", resA.DisplayScore)
	}
}

func TestCompletedOrdersDeterministic(t *testing.T) {
	id := uuid.New().String()
	first := CompletedOrders(id)
	for i := 0; i < 10; i++ {
		if got := CompletedOrders(id); got != first {
			t.Fatalf("expected stable value %d, got %d", first, got)
		}
	}
	if first < 20 || first >= 120 {
		t.Errorf("expected value in [20,120), got %d", first)
	}
}

func TestCompletedOrdersKnownValues(t *testing.T) {
	cases := []struct {
		id   string
		want int
	}{
		// hash("abc") = 96354
		{"abc", 74},
		// U+1F48A is a surrogate pair; the hash runs over both UTF-16 units:
		// 55357*31 + 56458 = 1772525
		{"\U0001F48A", 45},
	}
	for _, tc := range cases {
		if got := CompletedOrders(tc.id); got != tc.want {
			t.Errorf("CompletedOrders(%q): expected %d, got %d", tc.id, tc.want, got)
		}
	}
}

func TestDisclosureCap(t *testing.T) {
	var quotations []*store.Quotation
	for i := 0; i < 25; i++ {
		quotations = append(quotations, quote(1000+float64(i)*50, 3+i%10, 3.0+float64(i%20)*0.1))
	}
	scorer := NewScorer(discardLogger())
	ranked, err := scorer.Evaluate(quotations, ModeQuality)
	if err != nil {
		t.Fatal(err)
	}

	d := Disclose(ModeQuality, ranked)
	if d.Shown != DisclosureLimit {
		t.Errorf("expected %d shown, got %d", DisclosureLimit, d.Shown)
	}
	if d.Total != 25 {
		t.Errorf("expected total 25, got %d", d.Total)
	}
	if len(d.Results) != DisclosureLimit {
		t.Errorf("expected %d results, got %d", DisclosureLimit, len(d.Results))
	}
}

func TestDisclosureUnderLimit(t *testing.T) {
	quotations := []*store.Quotation{quote(100, 2, 4.0), quote(200, 4, 3.0)}
	scorer := NewScorer(discardLogger())
	ranked, _ := scorer.Evaluate(quotations, ModeBalanced)

	d := Disclose(ModeBalanced, ranked)
	if d.Shown != 2 || d.Total != 2 {
		t.Errorf("expected shown=total=2, got %d/%d", d.Shown, d.Total)
	}
	if d.LowestPrice != 100 {
		t.Errorf("expected lowest price 100, got %f", d.LowestPrice)
	}
}

func TestQualityLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{9.5, "Excellent"},
		{9.0, "Excellent"},
		{8.2, "Very good"},
		{7.0, "Good"},
		{5.1, "Acceptable"},
	}
	for _, tt := range tests {
		if got := QualityLabel(tt.score); got != tt.want {
			t.Errorf("QualityLabel(%f): expected %s, got %s", tt.score, tt.want, got)
		}
	}
}
