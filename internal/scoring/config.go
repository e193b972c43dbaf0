// Package scoring implements the config-driven lead scoring engines.
// All engines are pure calculators: they hold an immutable configuration
// loaded at construction time and no other state. Reloading weights means
// constructing a new engine.
package scoring

import (
	"fmt"
	"os"

	"leadscore_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

// FeatureWeight is one entry of the weight table.
type FeatureWeight struct {
	Weight      float64 `yaml:"weight"`
	Description string  `yaml:"description"`
}

// WeightTable maps feature names to weights while preserving the order in
// which features are declared in the configuration document. Declaration
// order is the tie-break for equally impactful contributions.
type WeightTable struct {
	order   []string
	entries map[string]FeatureWeight
}

// UnmarshalYAML decodes a YAML mapping into the table, keeping key order.
func (w *WeightTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("weights: expected mapping, got %v", node.Kind)
	}
	w.entries = make(map[string]FeatureWeight, len(node.Content)/2)
	w.order = make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var entry FeatureWeight
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return err
		}
		w.order = append(w.order, name)
		w.entries[name] = entry
	}
	return nil
}

// Add appends a feature to the table. Used when building configurations in
// code; YAML documents go through UnmarshalYAML instead.
func (w *WeightTable) Add(name string, entry FeatureWeight) {
	if w.entries == nil {
		w.entries = make(map[string]FeatureWeight)
	}
	if _, exists := w.entries[name]; !exists {
		w.order = append(w.order, name)
	}
	w.entries[name] = entry
}

// Features returns feature names in declaration order.
func (w *WeightTable) Features() []string {
	return w.order
}

// Get returns the weight entry for a feature.
func (w *WeightTable) Get(name string) (FeatureWeight, bool) {
	entry, ok := w.entries[name]
	return entry, ok
}

// Len returns the number of configured features.
func (w *WeightTable) Len() int {
	return len(w.order)
}

// TotalWeight sums all configured feature weights (recency budget excluded).
func (w *WeightTable) TotalWeight() float64 {
	total := 0.0
	for _, name := range w.order {
		total += w.entries[name].Weight
	}
	return total
}

// RecencyConfig defines the linear decay window for the enquiry recency signal.
// Omitted keys fall back to defaults; an explicit zero stays zero, so pointer
// fields distinguish "absent" from "zero".
type RecencyConfig struct {
	DaysDecay   *int     `yaml:"days_decay"`
	MaxScore    *float64 `yaml:"max_score"`
	Description string   `yaml:"description"`
}

// Decay returns the configured decay horizon in days.
func (r RecencyConfig) Decay() int {
	if r.DaysDecay == nil || *r.DaysDecay <= 0 {
		return defaultDaysDecay
	}
	return *r.DaysDecay
}

// Budget returns the recency max score. This amount is added to the
// normalization denominator whether or not an enquiry date is supplied.
func (r RecencyConfig) Budget() float64 {
	if r.MaxScore == nil {
		return defaultRecencyMaxScore
	}
	return *r.MaxScore
}

// IntentThresholds holds the score cutoffs for intent classification.
type IntentThresholds struct {
	High   *float64 `yaml:"high"`
	Medium *float64 `yaml:"medium"`
}

// HighCutoff returns the High intent threshold.
func (t IntentThresholds) HighCutoff() float64 {
	if t.High == nil {
		return defaultHighThreshold
	}
	return *t.High
}

// MediumCutoff returns the Medium intent threshold.
func (t IntentThresholds) MediumCutoff() float64 {
	if t.Medium == nil {
		return defaultMediumThreshold
	}
	return *t.Medium
}

// ScoreColor is a display band for a score range.
type ScoreColor struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Color string  `yaml:"color"`
	Label string  `yaml:"label"`
}

// ColorTable holds score color bands in declaration order. Bands are checked
// for inclusive containment in that order; overlaps resolve to the first
// declared band and gaps fall through to the Unknown fallback.
type ColorTable struct {
	order []string
	bands map[string]ScoreColor
}

// UnmarshalYAML decodes a YAML mapping into the table, keeping key order.
func (t *ColorTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("score_colors: expected mapping, got %v", node.Kind)
	}
	t.bands = make(map[string]ScoreColor, len(node.Content)/2)
	t.order = make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var band ScoreColor
		if err := node.Content[i+1].Decode(&band); err != nil {
			return err
		}
		t.order = append(t.order, name)
		t.bands[name] = band
	}
	return nil
}

// Add appends a band to the table, preserving insertion order.
func (t *ColorTable) Add(name string, band ScoreColor) {
	if t.bands == nil {
		t.bands = make(map[string]ScoreColor)
	}
	if _, exists := t.bands[name]; !exists {
		t.order = append(t.order, name)
	}
	t.bands[name] = band
}

// Match returns the first declared band containing score, or false.
func (t *ColorTable) Match(score float64) (ScoreColor, bool) {
	for _, name := range t.order {
		band := t.bands[name]
		if band.Min <= score && score <= band.Max {
			return band, true
		}
	}
	return ScoreColor{}, false
}

// ConfidenceFactor is a configured confidence sub-score weight. The factors
// are parsed and summed for config validation but the blend itself uses a
// fixed 0.3/0.4/0.3 split; see Explainer.confidence.
type ConfidenceFactor struct {
	Factor string  `yaml:"factor"`
	Weight float64 `yaml:"weight"`
}

// ActionConfig maps a score bracket to a recommended action.
type ActionConfig struct {
	Action           string `yaml:"action"`
	Urgency          string `yaml:"urgency"`
	ProbabilityLabel string `yaml:"probability_label"`
}

// ProbabilityConfig holds the conversion probability for a score bracket.
type ProbabilityConfig struct {
	Probability float64 `yaml:"probability"`
}

// Config is the full scoring weight configuration document.
type Config struct {
	Version                 string                       `yaml:"version"`
	Weights                 WeightTable                  `yaml:"weights"`
	Recency                 RecencyConfig                `yaml:"recency"`
	IntentThresholds        IntentThresholds             `yaml:"intent_thresholds"`
	ScoreColors             ColorTable                   `yaml:"score_colors"`
	ConfidenceFactors       []ConfidenceFactor           `yaml:"confidence_factors"`
	RecommendedActions      map[string]ActionConfig      `yaml:"recommended_actions"`
	ConversionProbabilities map[string]ProbabilityConfig `yaml:"conversion_probabilities"`
}

// Defaults applied when the document omits optional sections.
const (
	defaultDaysDecay       = 15
	defaultRecencyMaxScore = 10.0
	defaultHighThreshold   = 80.0
	defaultMediumThreshold = 60.0
)

// LoadConfig reads and parses the weight configuration document.
// A missing or malformed document is a hard failure: the engines must not
// silently score with empty weights.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "read scoring weights", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "parse scoring weights", err)
	}

	if cfg.Weights.Len() == 0 {
		return nil, apperr.Internal("scoring weights: no features configured")
	}
	for _, name := range cfg.Weights.Features() {
		entry, _ := cfg.Weights.Get(name)
		if entry.Weight < 0 {
			return nil, apperr.Internal("scoring weights: negative weight for " + name)
		}
	}

	if cfg.Recency.MaxScore != nil && *cfg.Recency.MaxScore < 0 {
		return nil, apperr.Internal("scoring weights: negative recency max_score")
	}

	return &cfg, nil
}
