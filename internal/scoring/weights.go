package scoring

import (
	"fmt"
	"math"
)

// Mode is a procurement mode: a named weighting policy controlling how bids
// are scored. The set is closed; unknown modes are rejected at parse time.
type Mode string

const (
	ModeEmergency Mode = "emergency"
	ModeCost      Mode = "cost"
	ModeQuality   Mode = "quality"
	ModeBalanced  Mode = "balanced"
)

// WeightProfile defines the relative importance of each bid criterion.
// All weights must sum to 1.0 (±0.001 tolerance).
type WeightProfile struct {
	Cost        float64 `json:"cost"`
	Delivery    float64 `json:"delivery"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
}

var profiles = map[Mode]WeightProfile{
	ModeEmergency: {Cost: 0.10, Delivery: 0.30, Quality: 0.15, Reliability: 0.45},
	ModeCost:      {Cost: 0.50, Delivery: 0.10, Quality: 0.20, Reliability: 0.20},
	ModeQuality:   {Cost: 0.10, Delivery: 0.10, Quality: 0.50, Reliability: 0.30},
	ModeBalanced:  {Cost: 0.30, Delivery: 0.20, Quality: 0.25, Reliability: 0.25},
}

// ParseMode validates a mode tag. The empty string defaults to balanced.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeBalanced, nil
	}
	m := Mode(s)
	if _, ok := profiles[m]; !ok {
		return "", fmt.Errorf("unknown procurement mode %q", s)
	}
	return m, nil
}

// ProfileFor returns the weight profile for a mode.
func ProfileFor(mode Mode) (WeightProfile, error) {
	p, ok := profiles[mode]
	if !ok {
		return WeightProfile{}, fmt.Errorf("unknown procurement mode %q", mode)
	}
	return p, nil
}

// Modes returns every registered procurement mode.
func Modes() []Mode {
	return []Mode{ModeEmergency, ModeCost, ModeQuality, ModeBalanced}
}

// Sum returns the total of all weights.
func (w WeightProfile) Sum() float64 {
	return w.Cost + w.Delivery + w.Quality + w.Reliability
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightProfile) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range []float64{w.Cost, w.Delivery, w.Quality, w.Reliability} {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}
