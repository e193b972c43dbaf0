// Package leads provides the lead scoring bounded context module.
// It wires the scoring engines, the repository, the response cache, and the
// HTTP handler into a single unit registered with the router.
package leads

import (
	"leadscore_backend/internal/cache"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/leads/handler"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/service"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, scoringCfg *scoring.Config, responseCache *cache.Cache, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, scoringCfg, responseCache, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use (worker, seeder).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the lead scoring routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/score-lead", m.handler.ScoreLead)
	ctx.V1.GET("/leads", m.handler.List)
	ctx.V1.GET("/leads/:id", m.handler.GetByID)
	ctx.V1.GET("/analytics", m.handler.Analytics)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
