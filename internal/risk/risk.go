// Package risk turns a model probability into the three-tier label shown to
// patients.
package risk

import "math"

// Tier is a coarse risk band.
type Tier string

// Tiers, lowest first.
const (
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
)

// Tier boundaries in percent. A boundary value belongs to the upper tier.
const (
	MediumFrom = 30.0
	HighFrom   = 70.0
)

var descriptions = map[Tier]string{
	Low:    "Low risk of heart disease. Keep up a healthy lifestyle and routine check-ups.",
	Medium: "Moderate risk of heart disease. Consider discussing these results with a doctor.",
	High:   "High risk of heart disease. Please consult a cardiologist as soon as possible.",
}

// Label texts for the binary outcome.
const (
	LabelPositive = "yes"
	LabelNegative = "no"

	DescriptionPositive = "The patient is classified as at risk of heart failure."
	DescriptionNegative = "The patient is not classified as at risk of heart failure."
)

// Classify buckets a percentage. Values below 0 are low and values above
// 100 are high. NaN has no tier and yields a Tier that is not Valid.
func Classify(percent float64) Tier {
	switch {
	case math.IsNaN(percent):
		return ""
	case percent < MediumFrom:
		return Low
	case percent < HighFrom:
		return Medium
	default:
		return High
	}
}

// Percent converts a probability to a percentage rounded to two decimals.
func Percent(probability float64) float64 {
	return math.Round(probability*100*100) / 100
}

// Description returns the fixed text of t.
func (t Tier) Description() string {
	return descriptions[t]
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := descriptions[t]
	return ok
}

// Label returns the binary label and its explanation.
func Label(positive bool) (string, string) {
	if positive {
		return LabelPositive, DescriptionPositive
	}
	return LabelNegative, DescriptionNegative
}
