package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository keyed by email, mirroring the unique
// constraint the real table enforces.
type fakeRepo struct {
	mu        sync.Mutex
	byEmail   map[string]repository.Lead
	analytics repository.Analytics
	lastList  repository.ListParams
	failEmail string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: map[string]repository.Lead{}}
}

func (f *fakeRepo) Upsert(_ context.Context, params repository.UpsertParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if params.Email == f.failEmail {
		return repository.Lead{}, apperr.Internal("storage unavailable")
	}

	lead, exists := f.byEmail[params.Email]
	if !exists {
		lead = repository.Lead{ID: uuid.New(), CreatedAt: time.Now().UTC()}
	}
	lead.Email = params.Email
	lead.Name = params.Name
	lead.Company = params.Company
	lead.DemoRequested = params.DemoRequested
	lead.Registration = params.Registration
	lead.EnquiryCallWhatsapp = params.EnquiryCallWhatsapp
	lead.EnquiryDate = params.EnquiryDate
	lead.PricingCompared = params.PricingCompared
	lead.LeadThroughEvents = params.LeadThroughEvents
	lead.LeadThroughCall = params.LeadThroughCall
	lead.LeadThroughReferral = params.LeadThroughReferral
	lead.Score = params.Score
	lead.IntentLevel = params.IntentLevel
	lead.Confidence = params.Confidence
	lead.RecommendedAction = params.RecommendedAction
	lead.Contributions = params.Contributions
	lead.UpdatedAt = time.Now().UTC()
	f.byEmail[params.Email] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lead := range f.byEmail {
		if lead.ID == id {
			return lead, nil
		}
	}
	return repository.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead, ok := f.byEmail[email]; ok {
		return lead, nil
	}
	return repository.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = params
	var leads []repository.Lead
	for _, lead := range f.byEmail {
		leads = append(leads, lead)
	}
	return leads, len(leads), nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var leads []repository.Lead
	for _, lead := range f.byEmail {
		leads = append(leads, lead)
	}
	return leads, nil
}

func (f *fakeRepo) Analytics(_ context.Context) (repository.Analytics, error) {
	return f.analytics, nil
}

func (f *fakeRepo) DeleteAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail = map[string]repository.Lead{}
	return nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testScoringConfig() *scoring.Config {
	cfg := &scoring.Config{
		Recency: scoring.RecencyConfig{
			DaysDecay:   intPtr(15),
			MaxScore:    floatPtr(10),
			Description: "Recent enquiry",
		},
		IntentThresholds: scoring.IntentThresholds{High: floatPtr(80), Medium: floatPtr(60)},
		RecommendedActions: map[string]scoring.ActionConfig{
			scoring.Bracket60To79: {Action: "Send personalized follow-up", Urgency: scoring.UrgencyHigh, ProbabilityLabel: "50-70%"},
		},
		ConversionProbabilities: map[string]scoring.ProbabilityConfig{
			scoring.Bracket60To79: {Probability: 0.55},
		},
	}
	cfg.Weights.Add("demo_requested", scoring.FeatureWeight{Weight: 30, Description: "Lead requested a product demo"})
	cfg.Weights.Add("registration", scoring.FeatureWeight{Weight: 20, Description: "Lead completed registration"})
	cfg.Weights.Add("pricing_compared", scoring.FeatureWeight{Weight: 15, Description: "Lead compared pricing"})
	return cfg
}

func newTestService(repo repository.Repository) *Service {
	return New(repo, testScoringConfig(), nil, logger.New("test"))
}

func workedExampleRequest() transport.ScoreLeadRequest {
	enquiry := time.Now().UTC().Add(-5 * 24 * time.Hour)
	return transport.ScoreLeadRequest{
		Email:           "jane@example.com",
		Name:            "Jane Doe",
		DemoRequested:   true,
		PricingCompared: true,
		EnquiryDate:     &enquiry,
	}
}

func TestScoreLead_Pipeline(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	resp, err := svc.ScoreLead(context.Background(), workedExampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(resp.Score-68.9) > 0.1 {
		t.Fatalf("expected score ~68.9, got %f", resp.Score)
	}
	if resp.IntentLevel != scoring.IntentMedium {
		t.Fatalf("expected Medium intent, got %s", resp.IntentLevel)
	}
	if resp.Action.Action != "Send personalized follow-up" {
		t.Fatalf("unexpected action %q", resp.Action.Action)
	}
	if resp.Action.Probability != 0.55 {
		t.Fatalf("expected probability 0.55, got %f", resp.Action.Probability)
	}
	if len(resp.Explanation.FeatureContributions) == 0 {
		t.Fatal("expected contributions in the explanation")
	}
	if resp.Explanation.FeatureContributions[0].Feature != "demo_requested" {
		t.Fatalf("expected demo_requested as top contribution, got %s",
			resp.Explanation.FeatureContributions[0].Feature)
	}
	if !resp.DemoRequested || !resp.PricingCompared || resp.Registration {
		t.Fatal("input features not echoed in the response")
	}

	stored, err := repo.GetByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("lead not persisted: %v", err)
	}
	if stored.Score != resp.Score || stored.IntentLevel != resp.IntentLevel {
		t.Fatal("persisted state diverges from response")
	}
}

func TestScoreLead_PersistsFullContributionList(t *testing.T) {
	cfg := testScoringConfig()
	cfg.Weights.Add("enquiry_call_whatsapp", scoring.FeatureWeight{Weight: 15, Description: "Lead enquired via call or WhatsApp"})
	cfg.Weights.Add("lead_through_events", scoring.FeatureWeight{Weight: 10, Description: "Lead came through an event"})
	cfg.Weights.Add("lead_through_call", scoring.FeatureWeight{Weight: 10, Description: "Lead came through a call"})
	cfg.Weights.Add("lead_through_referral", scoring.FeatureWeight{Weight: 20, Description: "Lead came through a referral"})

	repo := newFakeRepo()
	svc := New(repo, cfg, nil, logger.New("test"))

	enquiry := time.Now().UTC().Add(-5 * 24 * time.Hour)
	req := transport.ScoreLeadRequest{
		Email:               "max@example.com",
		Name:                "Max Payne",
		DemoRequested:       true,
		Registration:        true,
		EnquiryCallWhatsapp: true,
		PricingCompared:     true,
		LeadThroughEvents:   true,
		LeadThroughReferral: true,
		EnquiryDate:         &enquiry,
	}

	resp, err := svc.ScoreLead(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Six signals plus the recency entry. The stored record keeps them all;
	// the explanation block surfaces only the top five, rounded.
	stored, err := repo.GetByEmail(context.Background(), req.Email)
	if err != nil {
		t.Fatalf("lead not persisted: %v", err)
	}
	if len(stored.Contributions) != 7 {
		t.Fatalf("expected all 7 contributions persisted, got %d", len(stored.Contributions))
	}
	if len(resp.Explanation.FeatureContributions) != 5 {
		t.Fatalf("expected top-5 contributions in the explanation, got %d", len(resp.Explanation.FeatureContributions))
	}

	var recencyImpact float64
	found := false
	for _, c := range stored.Contributions {
		if c.Feature == "recency" {
			recencyImpact = c.Impact
			found = true
		}
	}
	if !found {
		t.Fatal("expected the recency contribution to be persisted")
	}
	// (15-5)/15*10 raw over the denominator of 130 (weights 120 + budget 10).
	expected := (10.0 / 15.0 * 10.0) / 130.0 * 100
	if math.Abs(recencyImpact-expected) > 1e-9 {
		t.Fatalf("expected unrounded recency impact %v, got %v", expected, recencyImpact)
	}
}

func TestScoreLead_UpsertIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	req := workedExampleRequest()

	first, err := svc.ScoreLead(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ScoreLead(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.byEmail) != 1 {
		t.Fatalf("expected a single row for the email, got %d", len(repo.byEmail))
	}
	if first.ID != second.ID {
		t.Fatal("rescoring the same email must update the existing lead")
	}
	if first.Score != second.Score {
		t.Fatalf("same input must yield the same score: %f vs %f", first.Score, second.Score)
	}
}

func TestGetLead_NotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetLead(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListLeads_LimitDefaultsAndClamp(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.ListLeads(ctx, transport.ListLeadsQuery{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastList.Limit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.lastList.Limit)
	}

	if _, err := svc.ListLeads(ctx, transport.ListLeadsQuery{Limit: 500, Skip: -3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastList.Limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", repo.lastList.Limit)
	}
	if repo.lastList.Skip != 0 {
		t.Fatalf("expected negative skip normalized to 0, got %d", repo.lastList.Skip)
	}
}

func TestAnalytics_EmptyIsAllZero(t *testing.T) {
	svc := newTestService(newFakeRepo())

	resp, err := svc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalLeads != 0 || resp.AverageScore != 0 || resp.ConversionForecast != 0 {
		t.Fatalf("expected zero payload, got %+v", resp)
	}
}

func TestAnalytics_ConversionForecast(t *testing.T) {
	repo := newFakeRepo()
	repo.analytics = repository.Analytics{
		TotalLeads:        10,
		AverageScore:      65.456,
		AverageConfidence: 78.512,
		HighIntentCount:   2,
		MediumIntentCount: 5,
		LowIntentCount:    3,
		DemoRequested:     4,
		Registration:      6,
		Referral:          1,
	}
	svc := newTestService(repo)

	resp, err := svc.Analytics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (0.75*2 + 0.55*5 + 0.30*3) / 10 = 0.515 -> 0.52
	if resp.ConversionForecast != 0.52 {
		t.Fatalf("expected forecast 0.52, got %f", resp.ConversionForecast)
	}
	if resp.HighIntentPercentage != 20 || resp.MediumIntentPercentage != 50 || resp.LowIntentPercentage != 30 {
		t.Fatalf("unexpected percentages: %+v", resp)
	}
	if resp.AverageScore != 65.46 {
		t.Fatalf("expected average score rounded to 65.46, got %f", resp.AverageScore)
	}
	if resp.SourceBreakdown.Registration != 6 {
		t.Fatalf("unexpected source breakdown: %+v", resp.SourceBreakdown)
	}
}

func TestRescoreAll_SurvivesSingleFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		req := workedExampleRequest()
		req.Email = email
		if _, err := svc.ScoreLead(ctx, req); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	repo.failEmail = "b@example.com"
	rescored, err := svc.RescoreAll(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rescored != 2 {
		t.Fatalf("expected 2 leads rescored around the failure, got %d", rescored)
	}
}

func TestRescoreAll_UpdatesStaleScores(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := workedExampleRequest()
	if _, err := svc.ScoreLead(ctx, req); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	// Age the enquiry past the decay horizon and rescore.
	stale := time.Now().UTC().Add(-40 * 24 * time.Hour)
	lead := repo.byEmail[req.Email]
	lead.EnquiryDate = &stale
	repo.byEmail[req.Email] = lead

	if _, err := svc.RescoreAll(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := repo.byEmail[req.Email]
	// Recency decayed to zero: 45 raw over the budgeted total of 75.
	expected := 45.0 / 75.0 * 100
	if math.Abs(updated.Score-expected) > 0.1 {
		t.Fatalf("expected rescored %.2f, got %f", expected, updated.Score)
	}
}
