package scoring

import (
	"strings"
	"testing"
)

func actionConfig() *Config {
	return &Config{
		RecommendedActions: map[string]ActionConfig{
			Bracket80To100: {Action: "Schedule demo call within 24 hours", Urgency: UrgencyImmediate, ProbabilityLabel: "75-90%"},
			Bracket60To79:  {Action: "Send personalized follow-up", Urgency: UrgencyHigh, ProbabilityLabel: "50-70%"},
			Bracket40To59:  {Action: "Add to nurture campaign", Urgency: UrgencyMedium, ProbabilityLabel: "25-45%"},
			BracketBelow40: {Action: "Monitor engagement", Urgency: UrgencyLow, ProbabilityLabel: "<20%"},
		},
		ConversionProbabilities: map[string]ProbabilityConfig{
			Bracket80To100: {Probability: 0.75},
			Bracket60To79:  {Probability: 0.55},
			Bracket40To59:  {Probability: 0.30},
		},
	}
}

func TestRecommend_BracketBoundaries(t *testing.T) {
	engine := NewActionEngine(actionConfig())

	cases := []struct {
		score   float64
		bracket string
	}{
		{100, Bracket80To100},
		{80, Bracket80To100},
		{79.999, Bracket60To79},
		{60, Bracket60To79},
		{59.999, Bracket40To59},
		{40, Bracket40To59},
		{39.999, BracketBelow40},
		{0, BracketBelow40},
	}
	for _, tc := range cases {
		rec := engine.Recommend(tc.score)
		if rec.ScoreBracket != tc.bracket {
			t.Fatalf("score %f: expected bracket %s, got %s", tc.score, tc.bracket, rec.ScoreBracket)
		}
	}
}

func TestRecommend_ConfiguredAction(t *testing.T) {
	engine := NewActionEngine(actionConfig())

	rec := engine.Recommend(85)
	if rec.Action != "Schedule demo call within 24 hours" {
		t.Fatalf("unexpected action %q", rec.Action)
	}
	if rec.Urgency != UrgencyImmediate {
		t.Fatalf("unexpected urgency %q", rec.Urgency)
	}
	if rec.Probability != 0.75 {
		t.Fatalf("expected probability 0.75, got %f", rec.Probability)
	}
	if !strings.Contains(rec.Rationale, "strong buying signals") {
		t.Fatalf("unexpected rationale %q", rec.Rationale)
	}
}

func TestRecommend_MissingBracketFallsBack(t *testing.T) {
	engine := NewActionEngine(&Config{})

	rec := engine.Recommend(85)
	if rec.Action != "No action" || rec.Urgency != UrgencyLow {
		t.Fatalf("expected generic fallback, got %q/%q", rec.Action, rec.Urgency)
	}
	if rec.Probability != 0 {
		t.Fatalf("expected probability 0 with no table, got %f", rec.Probability)
	}
	if rec.ScoreBracket != Bracket80To100 {
		t.Fatalf("bracket should still be derived, got %s", rec.ScoreBracket)
	}
}

func TestRecommend_UnknownUrgencyRationale(t *testing.T) {
	cfg := &Config{
		RecommendedActions: map[string]ActionConfig{
			Bracket80To100: {Action: "Call now", Urgency: "Critical", ProbabilityLabel: "90%"},
		},
	}
	engine := NewActionEngine(cfg)

	rec := engine.Recommend(90)
	if rec.Rationale != "Continue with appropriate action" {
		t.Fatalf("expected generic rationale for unknown urgency, got %q", rec.Rationale)
	}
}

func TestRecommendBulk(t *testing.T) {
	engine := NewActionEngine(actionConfig())

	results := engine.RecommendBulk(map[string]float64{
		"lead-a": 92,
		"lead-b": 65,
		"lead-c": 10,
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results["lead-a"].ScoreBracket != Bracket80To100 {
		t.Fatalf("lead-a: expected %s, got %s", Bracket80To100, results["lead-a"].ScoreBracket)
	}
	if results["lead-c"].Urgency != UrgencyLow {
		t.Fatalf("lead-c: expected Low urgency, got %s", results["lead-c"].Urgency)
	}
}
