package scoring

import (
	"math"
	"sort"
	"time"

	"leadscore_backend/platform/apperr"
)

// Features is the immutable signal snapshot a lead is scored from.
// Flags is keyed by configured feature name; absent or false entries
// contribute zero. EnquiryDate is optional.
type Features struct {
	Flags       map[string]bool
	EnquiryDate *time.Time
}

// Contribution explains one feature's share of a score.
type Contribution struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
	Reason  string  `json:"reason"`
}

// Result is the output of a single scoring call. It is never mutated after
// construction: contributions are sorted by impact descending and sum to at
// most 100.
type Result struct {
	Score         float64
	Contributions []Contribution
	RawScores     map[string]float64
	RecencyScore  float64
}

// Scorer turns a feature set into a scoring result. There is one production
// implementation (RuleEngine) and an explicit unimplemented ML variant.
type Scorer interface {
	Score(features Features) (Result, error)
}

// RuleEngine is the production, config-driven scoring engine.
type RuleEngine struct {
	cfg *Config
}

// NewRuleEngine creates a scoring engine over a loaded configuration.
func NewRuleEngine(cfg *Config) *RuleEngine {
	return &RuleEngine{cfg: cfg}
}

// Compile-time check that RuleEngine implements Scorer.
var _ Scorer = (*RuleEngine)(nil)

// Score computes the normalized 0-100 score and the contribution breakdown.
//
// The denominator is the sum of ALL configured weights plus the recency
// budget, not just the matched ones, so a lead with every signal present
// and a same-day enquiry approaches 100.
func (e *RuleEngine) Score(features Features) (Result, error) {
	rawScores := make(map[string]float64, e.cfg.Weights.Len())
	totalRaw := 0.0
	totalWeight := 0.0

	for _, feature := range e.cfg.Weights.Features() {
		entry, _ := e.cfg.Weights.Get(feature)
		if features.Flags[feature] {
			rawScores[feature] = entry.Weight
			totalRaw += entry.Weight
		} else {
			rawScores[feature] = 0
		}
		totalWeight += entry.Weight
	}

	recencyScore := e.recencyScore(features.EnquiryDate)
	totalRaw += recencyScore
	// Recency budget always counts toward the denominator, even with no
	// enquiry date supplied.
	totalWeight += e.cfg.Recency.Budget()

	score := 0.0
	if totalWeight > 0 {
		score = math.Min(100, totalRaw/totalWeight*100)
	}

	var contributions []Contribution
	for _, feature := range e.cfg.Weights.Features() {
		raw := rawScores[feature]
		if raw <= 0 {
			continue
		}
		entry, _ := e.cfg.Weights.Get(feature)
		contributions = append(contributions, Contribution{
			Feature: feature,
			Impact:  raw / totalWeight * 100,
			Reason:  entry.Description,
		})
	}
	if recencyScore > 0 {
		contributions = append(contributions, Contribution{
			Feature: "recency",
			Impact:  recencyScore / totalWeight * 100,
			Reason:  e.cfg.Recency.Description,
		})
	}

	// Stable: equal impacts keep declaration order.
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Impact > contributions[j].Impact
	})

	return Result{
		Score:         score,
		Contributions: contributions,
		RawScores:     rawScores,
		RecencyScore:  recencyScore,
	}, nil
}

// recencyScore decays linearly from the budget to zero over the configured
// horizon, clamped at zero beyond it. No enquiry date means no recency signal.
func (e *RuleEngine) recencyScore(enquiryDate *time.Time) float64 {
	if enquiryDate == nil {
		return 0
	}

	daysSince := int(time.Since(*enquiryDate).Hours() / 24)
	daysDecay := e.cfg.Recency.Decay()
	maxScore := e.cfg.Recency.Budget()

	return math.Max(0, float64(daysDecay-daysSince)/float64(daysDecay)*maxScore)
}

// MLEngine is the placeholder for a future model-based scorer. It shares the
// Scorer contract so the pipeline can swap implementations, but scoring with
// it is an error.
type MLEngine struct{}

// Compile-time check that MLEngine implements Scorer.
var _ Scorer = (*MLEngine)(nil)

// Score always fails: no model is trained or served yet.
func (e *MLEngine) Score(Features) (Result, error) {
	return Result{}, apperr.Unimplemented("ML scoring not implemented; use the rule engine")
}
