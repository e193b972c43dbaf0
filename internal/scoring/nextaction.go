package scoring

import (
	"fmt"
)

// Score brackets used to look up recommended actions and conversion
// probabilities. Lower bounds are inclusive: a score of exactly 80 lands
// in Bracket80To100.
const (
	Bracket80To100 = "80_100"
	Bracket60To79  = "60_79"
	Bracket40To59  = "40_59"
	BracketBelow40 = "below_40"
)

// Urgency levels attached to recommended actions.
const (
	UrgencyImmediate = "Immediate"
	UrgencyHigh      = "High"
	UrgencyMedium    = "Medium"
	UrgencyLow       = "Low"
)

// Recommendation is the next-best-action output for one score.
type Recommendation struct {
	Action           string  `json:"action"`
	Urgency          string  `json:"urgency"`
	ProbabilityLabel string  `json:"probability_label"`
	Probability      float64 `json:"probability"`
	ScoreBracket     string  `json:"score_bracket"`
	Rationale        string  `json:"rationale"`
}

// ActionEngine maps scores to recommended actions. It is a pure function of
// the score: contributions and raw features never influence the action.
type ActionEngine struct {
	cfg *Config
}

// NewActionEngine creates a next-action engine over a loaded configuration.
func NewActionEngine(cfg *Config) *ActionEngine {
	return &ActionEngine{cfg: cfg}
}

// Recommend returns the configured action for the score's bracket.
// Missing bracket or urgency entries degrade to generic defaults instead of
// failing; a malformed action table must not take the pipeline down.
func (e *ActionEngine) Recommend(score float64) Recommendation {
	bracket := bracketFor(score)

	action, ok := e.cfg.RecommendedActions[bracket]
	if !ok {
		action = ActionConfig{Action: "No action", Urgency: UrgencyLow, ProbabilityLabel: "<20%"}
	}
	if action.Action == "" {
		action.Action = "No action"
	}
	if action.Urgency == "" {
		action.Urgency = UrgencyLow
	}
	if action.ProbabilityLabel == "" {
		action.ProbabilityLabel = "<20%"
	}

	probability := 0.0
	if prob, ok := e.cfg.ConversionProbabilities[bracket]; ok {
		probability = prob.Probability
	}

	return Recommendation{
		Action:           action.Action,
		Urgency:          action.Urgency,
		ProbabilityLabel: action.ProbabilityLabel,
		Probability:      probability,
		ScoreBracket:     bracket,
		Rationale:        rationale(score, action.Urgency),
	}
}

// RecommendBulk computes recommendations for many leads at once. Entries are
// independent; there is no cross-lead interaction.
func (e *ActionEngine) RecommendBulk(scores map[string]float64) map[string]Recommendation {
	results := make(map[string]Recommendation, len(scores))
	for leadID, score := range scores {
		results[leadID] = e.Recommend(score)
	}
	return results
}

// bracketFor selects the score bracket with inclusive lower bounds.
func bracketFor(score float64) string {
	switch {
	case score >= 80:
		return Bracket80To100
	case score >= 60:
		return Bracket60To79
	case score >= 40:
		return Bracket40To59
	default:
		return BracketBelow40
	}
}

// rationale renders the urgency-templated explanation for the action.
// Unrecognized urgency strings fall back to a generic line.
func rationale(score float64, urgency string) string {
	switch urgency {
	case UrgencyImmediate:
		return fmt.Sprintf("Lead shows strong buying signals (Score: %.0f). High conversion probability. Prioritize immediate engagement.", score)
	case UrgencyHigh:
		return fmt.Sprintf("Lead demonstrates significant interest (Score: %.0f). Schedule follow-up to advance sales cycle.", score)
	case UrgencyMedium:
		return fmt.Sprintf("Lead shows moderate intent (Score: %.0f). Continue nurturing through targeted content.", score)
	case UrgencyLow:
		return fmt.Sprintf("Lead is in early awareness stage (Score: %.0f). Build relationship through educational content.", score)
	default:
		return "Continue with appropriate action"
	}
}
