// Package repository persists scored leads in PostgreSQL. Feature
// contributions are stored as a JSONB column and encoded/decoded only at this
// edge; the rest of the application works with typed contribution slices.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

const leadColumns = `id, email, name, company,
	demo_requested, registration, enquiry_call_whatsapp, enquiry_date,
	pricing_compared, lead_through_events, lead_through_call, lead_through_referral,
	score, intent_level, confidence, recommended_action, feature_contributions,
	created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage).WithOp("leads.GetByID")
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

// GetByEmail retrieves a lead by its email address.
func (r *Repo) GetByEmail(ctx context.Context, email string) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage).WithOp("leads.GetByEmail")
		}
		return Lead{}, fmt.Errorf("get lead by email: %w", err)
	}
	return lead, nil
}

// Upsert writes the full lead state keyed by email. The insert and the
// conflict update happen in one statement, so concurrent scores for the same
// email cannot produce duplicate rows.
func (r *Repo) Upsert(ctx context.Context, params UpsertParams) (Lead, error) {
	contributions, err := json.Marshal(params.Contributions)
	if err != nil {
		return Lead{}, fmt.Errorf("encode contributions: %w", err)
	}

	query := `
		INSERT INTO leads (
			email, name, company,
			demo_requested, registration, enquiry_call_whatsapp, enquiry_date,
			pricing_compared, lead_through_events, lead_through_call, lead_through_referral,
			score, intent_level, confidence, recommended_action, feature_contributions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			company = EXCLUDED.company,
			demo_requested = EXCLUDED.demo_requested,
			registration = EXCLUDED.registration,
			enquiry_call_whatsapp = EXCLUDED.enquiry_call_whatsapp,
			enquiry_date = EXCLUDED.enquiry_date,
			pricing_compared = EXCLUDED.pricing_compared,
			lead_through_events = EXCLUDED.lead_through_events,
			lead_through_call = EXCLUDED.lead_through_call,
			lead_through_referral = EXCLUDED.lead_through_referral,
			score = EXCLUDED.score,
			intent_level = EXCLUDED.intent_level,
			confidence = EXCLUDED.confidence,
			recommended_action = EXCLUDED.recommended_action,
			feature_contributions = EXCLUDED.feature_contributions,
			updated_at = now()
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.Email, params.Name, params.Company,
		params.DemoRequested, params.Registration, params.EnquiryCallWhatsapp, params.EnquiryDate,
		params.PricingCompared, params.LeadThroughEvents, params.LeadThroughCall, params.LeadThroughReferral,
		params.Score, params.IntentLevel, params.Confidence, params.RecommendedAction, contributions,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("upsert lead: %w", err)
	}
	return lead, nil
}

// List retrieves leads with pagination, descending sort, and optional intent
// filtering. Sort fields are whitelisted; anything else is rejected.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	sortBy := "score"
	switch params.SortBy {
	case "", "score":
	case "created_at":
		sortBy = "created_at"
	default:
		return nil, 0, apperr.BadRequest("invalid sort field")
	}

	var intentParam interface{}
	if params.IntentFilter != "" {
		intentParam = params.IntentFilter
	}

	countQuery := `
		SELECT COUNT(*)
		FROM leads
		WHERE ($1::text IS NULL OR intent_level = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, intentParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1::text IS NULL OR intent_level = $1)
		ORDER BY
			CASE WHEN $2 = 'score' THEN score END DESC,
			CASE WHEN $2 = 'created_at' THEN created_at END DESC,
			created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, intentParam, sortBy, params.Limit, params.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// ListAll retrieves every stored lead. Used by the periodic rescore job.
func (r *Repo) ListAll(ctx context.Context) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// DeleteAll removes every lead. Used by the seeding command.
func (r *Repo) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM leads`); err != nil {
		return fmt.Errorf("delete all leads: %w", err)
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var lead Lead
	var contributions []byte

	err := row.Scan(
		&lead.ID, &lead.Email, &lead.Name, &lead.Company,
		&lead.DemoRequested, &lead.Registration, &lead.EnquiryCallWhatsapp, &lead.EnquiryDate,
		&lead.PricingCompared, &lead.LeadThroughEvents, &lead.LeadThroughCall, &lead.LeadThroughReferral,
		&lead.Score, &lead.IntentLevel, &lead.Confidence, &lead.RecommendedAction, &contributions,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	if len(contributions) > 0 {
		if err := json.Unmarshal(contributions, &lead.Contributions); err != nil {
			return Lead{}, fmt.Errorf("decode contributions: %w", err)
		}
	}
	if lead.Contributions == nil {
		lead.Contributions = []scoring.Contribution{}
	}
	return lead, nil
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	var results []Lead

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return results, nil
}
