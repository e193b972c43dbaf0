package repository

import (
	"context"
	"fmt"
)

// Analytics computes the aggregate snapshot in a single round trip using
// filtered aggregates. An empty table yields a zero-valued snapshot, not an
// error.
func (r *Repo) Analytics(ctx context.Context) (Analytics, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(score), 0),
			COALESCE(AVG(confidence), 0),
			COUNT(*) FILTER (WHERE intent_level = 'High'),
			COUNT(*) FILTER (WHERE intent_level = 'Medium'),
			COUNT(*) FILTER (WHERE intent_level = 'Low'),
			COUNT(*) FILTER (WHERE demo_requested),
			COUNT(*) FILTER (WHERE registration),
			COUNT(*) FILTER (WHERE lead_through_referral)
		FROM leads`

	var a Analytics
	err := r.pool.QueryRow(ctx, query).Scan(
		&a.TotalLeads,
		&a.AverageScore,
		&a.AverageConfidence,
		&a.HighIntentCount,
		&a.MediumIntentCount,
		&a.LowIntentCount,
		&a.DemoRequested,
		&a.Registration,
		&a.Referral,
	)
	if err != nil {
		return Analytics{}, fmt.Errorf("lead analytics: %w", err)
	}
	return a, nil
}
