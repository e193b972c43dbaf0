package scoring

import (
	"fmt"
	"math"
	"time"
)

// Intent levels derived from score and configured thresholds.
const (
	IntentHigh   = "High"
	IntentMedium = "Medium"
	IntentLow    = "Low"
)

// Fixed blend weights for the confidence sub-scores. The configured
// confidence_factors section is parsed but the per-factor weights are not
// individually applied; changing that needs a product decision first.
const (
	confidenceCompletenessWeight = 0.3
	confidenceRecencyWeight      = 0.4
	confidenceDiversityWeight    = 0.3
)

// Confidence baselines when optional inputs are missing.
const (
	defaultCompleteness  = 0.6
	defaultSignalRecency = 0.8
	recencyDecayDays     = 30.0
	maxDiversitySignals  = 5.0
)

// topContributions is how many features the explanation surfaces.
const topContributions = 5

// Explanation is the human-readable interpretation of a scoring result.
type Explanation struct {
	Score                float64        `json:"score"`
	IntentLevel          string         `json:"intent_level"`
	FeatureContributions []Contribution `json:"feature_contributions"`
	Confidence           float64        `json:"confidence"`
	Color                string         `json:"color"`
	Label                string         `json:"label"`
	Summary              string         `json:"summary"`
}

// Explainer classifies intent, derives confidence, and formats contributions.
type Explainer struct {
	cfg *Config
}

// NewExplainer creates an explanation engine over a loaded configuration.
func NewExplainer(cfg *Config) *Explainer {
	return &Explainer{cfg: cfg}
}

// Explain builds a structured explanation for a score. The contribution list
// must already be sorted by impact descending (the scoring engine guarantees
// this). features may be nil; confidence then uses its default baselines.
func (e *Explainer) Explain(score float64, contributions []Contribution, features *Features) Explanation {
	intentLevel := e.intentLevel(score)
	confidence := e.confidence(contributions, features)

	top := contributions
	if len(top) > topContributions {
		top = top[:topContributions]
	}
	formatted := make([]Contribution, len(top))
	for i, c := range top {
		formatted[i] = Contribution{
			Feature: c.Feature,
			Impact:  math.Round(c.Impact*10) / 10,
			Reason:  c.Reason,
		}
	}

	color, label := e.scoreColor(score)

	return Explanation{
		Score:                math.Round(score*10) / 10,
		IntentLevel:          intentLevel,
		FeatureContributions: formatted,
		Confidence:           math.Round(confidence*10) / 10,
		Color:                color,
		Label:                label,
		Summary:              e.summary(score, intentLevel, contributions),
	}
}

// intentLevel classifies a score against the configured thresholds.
// Monotonic in score: a higher score never yields a lower tier.
func (e *Explainer) intentLevel(score float64) string {
	switch {
	case score >= e.cfg.IntentThresholds.HighCutoff():
		return IntentHigh
	case score >= e.cfg.IntentThresholds.MediumCutoff():
		return IntentMedium
	default:
		return IntentLow
	}
}

// confidence blends data completeness, signal recency, and signal diversity
// into a 0-100 percentage.
func (e *Explainer) confidence(contributions []Contribution, features *Features) float64 {
	completeness := defaultCompleteness
	if features != nil && len(features.Flags) > 0 {
		filled := 0
		total := len(features.Flags)
		for _, set := range features.Flags {
			if set {
				filled++
			}
		}
		if features.EnquiryDate != nil {
			filled++
		}
		total++
		completeness = float64(filled) / float64(total)
	}

	recency := defaultSignalRecency
	if features != nil && features.EnquiryDate != nil {
		// Whole elapsed days, matching the scoring engine's recency decay.
		daysSince := float64(int(time.Since(*features.EnquiryDate).Hours() / 24))
		recency = math.Max(0, 1-daysSince/recencyDecayDays)
	}

	diversity := math.Min(1.0, float64(len(contributions))/maxDiversitySignals)

	confidence := completeness*confidenceCompletenessWeight +
		recency*confidenceRecencyWeight +
		diversity*confidenceDiversityWeight

	return math.Max(0, math.Min(100, confidence*100))
}

// scoreColor picks the first declared band containing the score. Bands that
// gap or overlap are a configuration concern; anything uncovered falls back
// to a neutral Unknown band.
func (e *Explainer) scoreColor(score float64) (color string, label string) {
	if band, ok := e.cfg.ScoreColors.Match(score); ok {
		return band.Color, band.Label
	}
	return "#6b7280", "Unknown"
}

// summary renders the one-line narrative for the intent tier, naming the top
// contributing feature.
func (e *Explainer) summary(score float64, intentLevel string, contributions []Contribution) string {
	if len(contributions) == 0 {
		return fmt.Sprintf("Lead has a %.0f score with %s intent.", score, intentLevel)
	}

	topFeature := contributions[0].Feature

	switch intentLevel {
	case IntentHigh:
		return fmt.Sprintf("Strong lead candidate (Score: %.0f). Driven by %s. Recommend immediate action.", score, topFeature)
	case IntentMedium:
		return fmt.Sprintf("Promising lead (Score: %.0f). Main interest: %s. Nurture further.", score, topFeature)
	case IntentLow:
		return fmt.Sprintf("Early-stage lead (Score: %.0f). Limited engagement signals. Consider drip campaigns.", score)
	default:
		return "Lead assessment complete"
	}
}
