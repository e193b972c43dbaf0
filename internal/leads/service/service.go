// Package service orchestrates the lead scoring pipeline: score, explain,
// recommend, persist, cache. It owns no scoring logic itself; the engines in
// internal/scoring are pure and the repository handles persistence.
package service

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"leadscore_backend/internal/cache"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Listing defaults and bounds.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Per-tier conversion rates for the analytics forecast.
const (
	highConversionRate   = 0.75
	mediumConversionRate = 0.55
	lowConversionRate    = 0.30
)

const analyticsCacheKey = "analytics"

// Service coordinates the engines, the repository, and the response cache.
type Service struct {
	repo      repository.Repository
	scorer    scoring.Scorer
	explainer *scoring.Explainer
	actions   *scoring.ActionEngine
	cache     *cache.Cache
	log       *logger.Logger
}

// New creates the lead service over a loaded scoring configuration.
func New(repo repository.Repository, cfg *scoring.Config, cache *cache.Cache, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		scorer:    scoring.NewRuleEngine(cfg),
		explainer: scoring.NewExplainer(cfg),
		actions:   scoring.NewActionEngine(cfg),
		cache:     cache,
		log:       log,
	}
}

// ScoreLead runs the full pipeline for one lead: score, explain, recommend,
// then upsert keyed by email. Scoring the same lead twice with the same input
// yields the same stored state.
func (s *Service) ScoreLead(ctx context.Context, req transport.ScoreLeadRequest) (transport.ScoreLeadResponse, error) {
	features := scoring.Features{
		Flags:       req.FeatureFlags(),
		EnquiryDate: req.EnquiryDate,
	}

	result, err := s.scorer.Score(features)
	if err != nil {
		return transport.ScoreLeadResponse{}, err
	}

	explanation := s.explainer.Explain(result.Score, result.Contributions, &features)
	action := s.actions.Recommend(result.Score)

	// The full unrounded contribution list is persisted; the explanation
	// block carries the rounded top slice for display only.
	lead, err := s.repo.Upsert(ctx, repository.UpsertParams{
		Email:               req.Email,
		Name:                req.Name,
		Company:             req.Company,
		DemoRequested:       req.DemoRequested,
		Registration:        req.Registration,
		EnquiryCallWhatsapp: req.EnquiryCallWhatsapp,
		EnquiryDate:         req.EnquiryDate,
		PricingCompared:     req.PricingCompared,
		LeadThroughEvents:   req.LeadThroughEvents,
		LeadThroughCall:     req.LeadThroughCall,
		LeadThroughReferral: req.LeadThroughReferral,
		Score:               result.Score,
		IntentLevel:         explanation.IntentLevel,
		Confidence:          explanation.Confidence,
		RecommendedAction:   action.Action,
		Contributions:       result.Contributions,
	})
	if err != nil {
		return transport.ScoreLeadResponse{}, err
	}

	s.cache.Delete(ctx, leadCacheKey(lead.ID), analyticsCacheKey)
	s.log.ScoringEvent(lead.Email, lead.Score, lead.IntentLevel)

	return transport.ScoreLeadResponse{
		ID:                  lead.ID,
		Email:               lead.Email,
		Name:                lead.Name,
		Company:             lead.Company,
		DemoRequested:       lead.DemoRequested,
		Registration:        lead.Registration,
		EnquiryCallWhatsapp: lead.EnquiryCallWhatsapp,
		EnquiryDate:         lead.EnquiryDate,
		PricingCompared:     lead.PricingCompared,
		LeadThroughEvents:   lead.LeadThroughEvents,
		LeadThroughCall:     lead.LeadThroughCall,
		LeadThroughReferral: lead.LeadThroughReferral,
		Score:               lead.Score,
		IntentLevel:         lead.IntentLevel,
		Confidence:          lead.Confidence,
		RecommendedAction:   lead.RecommendedAction,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
		Explanation: transport.ScoreExplanation{
			Score:                explanation.Score,
			IntentLevel:          explanation.IntentLevel,
			FeatureContributions: explanation.FeatureContributions,
			Confidence:           explanation.Confidence,
			Color:                explanation.Color,
			Label:                explanation.Label,
			Summary:              explanation.Summary,
			RecommendedAction:    action.Action,
		},
		Action: transport.NextAction{
			Action:           action.Action,
			Urgency:          action.Urgency,
			ProbabilityLabel: action.ProbabilityLabel,
			Probability:      action.Probability,
			ScoreBracket:     action.ScoreBracket,
			Rationale:        action.Rationale,
		},
	}, nil
}

// GetLead retrieves a single lead with its decoded contributions, served from
// cache when possible.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	key := leadCacheKey(id)

	var cached transport.LeadDetailResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}

	resp := transport.LeadDetailResponse{
		ID:                   lead.ID,
		Email:                lead.Email,
		Name:                 lead.Name,
		Company:              lead.Company,
		Score:                lead.Score,
		IntentLevel:          lead.IntentLevel,
		Confidence:           lead.Confidence,
		RecommendedAction:    lead.RecommendedAction,
		CreatedAt:            lead.CreatedAt,
		UpdatedAt:            lead.UpdatedAt,
		FeatureContributions: lead.Contributions,
	}

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// ListLeads returns a page of leads. A zero limit takes the default; limits
// above the maximum are clamped.
func (s *Service) ListLeads(ctx context.Context, query transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	skip := query.Skip
	if skip < 0 {
		skip = 0
	}

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		Skip:         skip,
		Limit:        limit,
		SortBy:       query.SortBy,
		IntentFilter: query.IntentFilter,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadListItem, len(leads))
	for i, lead := range leads {
		items[i] = transport.LeadListItem{
			ID:                lead.ID,
			Email:             lead.Email,
			Name:              lead.Name,
			Company:           lead.Company,
			Score:             lead.Score,
			IntentLevel:       lead.IntentLevel,
			Confidence:        lead.Confidence,
			RecommendedAction: lead.RecommendedAction,
			CreatedAt:         lead.CreatedAt,
		}
	}

	return transport.LeadListResponse{
		Leads: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}

// Analytics returns the aggregate overview with the per-tier conversion
// forecast. No leads means an all-zero payload, not an error.
func (s *Service) Analytics(ctx context.Context) (transport.AnalyticsResponse, error) {
	var cached transport.AnalyticsResponse
	if s.cache.GetJSON(ctx, analyticsCacheKey, &cached) {
		return cached, nil
	}

	agg, err := s.repo.Analytics(ctx)
	if err != nil {
		return transport.AnalyticsResponse{}, err
	}

	resp := transport.AnalyticsResponse{
		TotalLeads: agg.TotalLeads,
		SourceBreakdown: transport.SourceBreakdown{
			DemoRequested: agg.DemoRequested,
			Registration:  agg.Registration,
			Referral:      agg.Referral,
		},
	}

	if agg.TotalLeads > 0 {
		total := float64(agg.TotalLeads)
		forecast := (highConversionRate*float64(agg.HighIntentCount) +
			mediumConversionRate*float64(agg.MediumIntentCount) +
			lowConversionRate*float64(agg.LowIntentCount)) / total

		resp.AverageScore = round2(agg.AverageScore)
		resp.AverageConfidence = round2(agg.AverageConfidence)
		resp.HighIntentCount = agg.HighIntentCount
		resp.HighIntentPercentage = round1(float64(agg.HighIntentCount) / total * 100)
		resp.MediumIntentCount = agg.MediumIntentCount
		resp.MediumIntentPercentage = round1(float64(agg.MediumIntentCount) / total * 100)
		resp.LowIntentCount = agg.LowIntentCount
		resp.LowIntentPercentage = round1(float64(agg.LowIntentCount) / total * 100)
		resp.ConversionForecast = round2(forecast)
	}

	s.cache.SetJSON(ctx, analyticsCacheKey, resp)
	return resp, nil
}

// RescoreAll re-runs the scoring pipeline over every stored lead from its
// persisted feature fields. Recency decay means scores drift as time passes;
// this brings them current. One lead failing does not abort the batch.
// Returns the number of leads successfully rescored.
func (s *Service) RescoreAll(ctx context.Context, concurrency int) (int, error) {
	leads, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("rescore: %w", err)
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	var rescored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, lead := range leads {
		lead := lead
		g.Go(func() error {
			if err := s.rescoreLead(gctx, lead); err != nil {
				s.log.Error("rescore_lead_failed", "email", lead.Email, "error", err.Error())
				return nil
			}
			rescored.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(rescored.Load()), err
	}
	return int(rescored.Load()), nil
}

func (s *Service) rescoreLead(ctx context.Context, lead repository.Lead) error {
	features := scoring.Features{
		Flags:       lead.FeatureFlags(),
		EnquiryDate: lead.EnquiryDate,
	}

	result, err := s.scorer.Score(features)
	if err != nil {
		return err
	}

	explanation := s.explainer.Explain(result.Score, result.Contributions, &features)
	action := s.actions.Recommend(result.Score)

	updated, err := s.repo.Upsert(ctx, repository.UpsertParams{
		Email:               lead.Email,
		Name:                lead.Name,
		Company:             lead.Company,
		DemoRequested:       lead.DemoRequested,
		Registration:        lead.Registration,
		EnquiryCallWhatsapp: lead.EnquiryCallWhatsapp,
		EnquiryDate:         lead.EnquiryDate,
		PricingCompared:     lead.PricingCompared,
		LeadThroughEvents:   lead.LeadThroughEvents,
		LeadThroughCall:     lead.LeadThroughCall,
		LeadThroughReferral: lead.LeadThroughReferral,
		Score:               result.Score,
		IntentLevel:         explanation.IntentLevel,
		Confidence:          explanation.Confidence,
		RecommendedAction:   action.Action,
		Contributions:       result.Contributions,
	})
	if err != nil {
		return err
	}

	s.cache.Delete(ctx, leadCacheKey(updated.ID), analyticsCacheKey)
	return nil
}

func leadCacheKey(id uuid.UUID) string {
	return "lead:" + id.String()
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
