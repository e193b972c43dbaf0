package repository

import (
	"context"
	"time"

	"leadscore_backend/internal/scoring"

	"github.com/google/uuid"
)

// Lead is the persisted lead row with its scoring results.
type Lead struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	Company             *string
	DemoRequested       bool
	Registration        bool
	EnquiryCallWhatsapp bool
	EnquiryDate         *time.Time
	PricingCompared     bool
	LeadThroughEvents   bool
	LeadThroughCall     bool
	LeadThroughReferral bool
	Score               float64
	IntentLevel         string
	Confidence          float64
	RecommendedAction   string
	Contributions       []scoring.Contribution
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FeatureFlags returns the stored boolean signals keyed by feature name, in
// the shape the scoring engine consumes. Used when rescoring persisted leads.
func (l Lead) FeatureFlags() map[string]bool {
	return map[string]bool{
		"demo_requested":        l.DemoRequested,
		"registration":          l.Registration,
		"enquiry_call_whatsapp": l.EnquiryCallWhatsapp,
		"pricing_compared":      l.PricingCompared,
		"lead_through_events":   l.LeadThroughEvents,
		"lead_through_call":     l.LeadThroughCall,
		"lead_through_referral": l.LeadThroughReferral,
	}
}

// UpsertParams contains the full lead state written by the scoring pipeline.
// The email is the natural key: an existing row with the same email is
// replaced atomically.
type UpsertParams struct {
	Email               string
	Name                string
	Company             *string
	DemoRequested       bool
	Registration        bool
	EnquiryCallWhatsapp bool
	EnquiryDate         *time.Time
	PricingCompared     bool
	LeadThroughEvents   bool
	LeadThroughCall     bool
	LeadThroughReferral bool
	Score               float64
	IntentLevel         string
	Confidence          float64
	RecommendedAction   string
	Contributions       []scoring.Contribution
}

// ListParams controls pagination, sorting, and intent filtering for listings.
type ListParams struct {
	Skip         int
	Limit        int
	SortBy       string
	IntentFilter string
}

// Analytics is the aggregate snapshot over all stored leads.
type Analytics struct {
	TotalLeads        int
	AverageScore      float64
	HighIntentCount   int
	MediumIntentCount int
	LowIntentCount    int
	AverageConfidence float64
	DemoRequested     int
	Registration      int
	Referral          int
}

// LeadReader provides read operations over stored leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetByEmail(ctx context.Context, email string) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListAll(ctx context.Context) ([]Lead, error)
	Analytics(ctx context.Context) (Analytics, error)
}

// LeadWriter provides write operations for the scoring pipeline.
type LeadWriter interface {
	Upsert(ctx context.Context, params UpsertParams) (Lead, error)
	DeleteAll(ctx context.Context) error
}

// Repository combines all lead repository operations.
type Repository interface {
	LeadReader
	LeadWriter
}
