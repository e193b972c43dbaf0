// Package transport defines the request and response DTOs for the leads API.
package transport

import (
	"time"

	"leadscore_backend/internal/scoring"

	"github.com/google/uuid"
)

// ScoreLeadRequest is the input payload for the scoring pipeline. The boolean
// signal fields default to false when omitted; enquiry_date is optional.
type ScoreLeadRequest struct {
	Email               string     `json:"email" validate:"required,email,max=255"`
	Name                string     `json:"name" validate:"required,min=1,max=255"`
	Company             *string    `json:"company" validate:"omitempty,max=255"`
	DemoRequested       bool       `json:"demo_requested"`
	Registration        bool       `json:"registration"`
	EnquiryCallWhatsapp bool       `json:"enquiry_call_whatsapp"`
	EnquiryDate         *time.Time `json:"enquiry_date"`
	PricingCompared     bool       `json:"pricing_compared"`
	LeadThroughEvents   bool       `json:"lead_through_events"`
	LeadThroughCall     bool       `json:"lead_through_call"`
	LeadThroughReferral bool       `json:"lead_through_referral"`
}

// FeatureFlags returns the boolean signals keyed by configured feature name.
func (r ScoreLeadRequest) FeatureFlags() map[string]bool {
	return map[string]bool{
		"demo_requested":        r.DemoRequested,
		"registration":          r.Registration,
		"enquiry_call_whatsapp": r.EnquiryCallWhatsapp,
		"pricing_compared":      r.PricingCompared,
		"lead_through_events":   r.LeadThroughEvents,
		"lead_through_call":     r.LeadThroughCall,
		"lead_through_referral": r.LeadThroughReferral,
	}
}

// ListLeadsQuery holds the query parameters for the lead listing endpoint.
type ListLeadsQuery struct {
	Skip         int    `form:"skip" validate:"min=0"`
	Limit        int    `form:"limit" validate:"min=0,max=100"`
	SortBy       string `form:"sort_by" validate:"omitempty,oneof=score created_at"`
	IntentFilter string `form:"intent_filter" validate:"omitempty,oneof=High Medium Low"`
}

// ScoreExplanation is the structured explanation attached to a scored lead.
type ScoreExplanation struct {
	Score                float64                `json:"score"`
	IntentLevel          string                 `json:"intent_level"`
	FeatureContributions []scoring.Contribution `json:"feature_contributions"`
	Confidence           float64                `json:"confidence"`
	Color                string                 `json:"color"`
	Label                string                 `json:"label"`
	Summary              string                 `json:"summary"`
	RecommendedAction    string                 `json:"recommended_action"`
}

// NextAction is the recommended follow-up for a scored lead.
type NextAction struct {
	Action           string  `json:"action"`
	Urgency          string  `json:"urgency"`
	ProbabilityLabel string  `json:"probability_label"`
	Probability      float64 `json:"probability"`
	ScoreBracket     string  `json:"score_bracket"`
	Rationale        string  `json:"rationale"`
}

// ScoreLeadResponse is the combined pipeline output: the persisted lead with
// its echoed input features, explanation, and next action.
type ScoreLeadResponse struct {
	ID                  uuid.UUID        `json:"id"`
	Email               string           `json:"email"`
	Name                string           `json:"name"`
	Company             *string          `json:"company"`
	DemoRequested       bool             `json:"demo_requested"`
	Registration        bool             `json:"registration"`
	EnquiryCallWhatsapp bool             `json:"enquiry_call_whatsapp"`
	EnquiryDate         *time.Time       `json:"enquiry_date"`
	PricingCompared     bool             `json:"pricing_compared"`
	LeadThroughEvents   bool             `json:"lead_through_events"`
	LeadThroughCall     bool             `json:"lead_through_call"`
	LeadThroughReferral bool             `json:"lead_through_referral"`
	Score               float64          `json:"score"`
	IntentLevel         string           `json:"intent_level"`
	Confidence          float64          `json:"confidence"`
	RecommendedAction   string           `json:"recommended_action"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	Explanation         ScoreExplanation `json:"explanation"`
	Action              NextAction       `json:"action"`
}

// LeadDetailResponse is the single-lead read payload including the decoded
// contribution list.
type LeadDetailResponse struct {
	ID                   uuid.UUID              `json:"id"`
	Email                string                 `json:"email"`
	Name                 string                 `json:"name"`
	Company              *string                `json:"company"`
	Score                float64                `json:"score"`
	IntentLevel          string                 `json:"intent_level"`
	Confidence           float64                `json:"confidence"`
	RecommendedAction    string                 `json:"recommended_action"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
	FeatureContributions []scoring.Contribution `json:"feature_contributions"`
}

// LeadListItem is the compact row shape for the listing endpoint.
type LeadListItem struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Company           *string   `json:"company"`
	Score             float64   `json:"score"`
	IntentLevel       string    `json:"intent_level"`
	Confidence        float64   `json:"confidence"`
	RecommendedAction string    `json:"recommended_action"`
	CreatedAt         time.Time `json:"created_at"`
}

// LeadListResponse is the paginated listing payload.
type LeadListResponse struct {
	Leads []LeadListItem `json:"leads"`
	Total int            `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// SourceBreakdown counts leads per acquisition signal.
type SourceBreakdown struct {
	DemoRequested int `json:"demo_requested"`
	Registration  int `json:"registration"`
	Referral      int `json:"referral"`
}

// AnalyticsResponse is the aggregate overview payload. All fields are zero
// when no leads exist.
type AnalyticsResponse struct {
	TotalLeads             int             `json:"total_leads"`
	AverageScore           float64         `json:"average_score"`
	HighIntentCount        int             `json:"high_intent_count"`
	HighIntentPercentage   float64         `json:"high_intent_percentage"`
	MediumIntentCount      int             `json:"medium_intent_count"`
	MediumIntentPercentage float64         `json:"medium_intent_percentage"`
	LowIntentCount         int             `json:"low_intent_count"`
	LowIntentPercentage    float64         `json:"low_intent_percentage"`
	AverageConfidence      float64         `json:"average_confidence"`
	ConversionForecast     float64         `json:"conversion_forecast"`
	SourceBreakdown        SourceBreakdown `json:"source_breakdown"`
}
