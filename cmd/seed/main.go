// The seed command wipes the leads table and scores a fixed sample set
// through the full pipeline, so seeded rows carry real scores, explanations,
// and recommendations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/service"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("seeding leads database")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	scoringCfg, err := scoring.LoadConfig(cfg.ScoringWeightsPath)
	if err != nil {
		log.Error("failed to load scoring weights", "error", err)
		panic("failed to load scoring weights: " + err.Error())
	}

	repo := repository.New(pool)
	svc := service.New(repo, scoringCfg, nil, log)

	if err := repo.DeleteAll(ctx); err != nil {
		log.Error("failed to clear leads", "error", err)
		panic("failed to clear leads: " + err.Error())
	}
	log.Info("existing leads cleared")

	seeded := 0
	for _, lead := range sampleLeads() {
		result, err := svc.ScoreLead(ctx, lead)
		if err != nil {
			log.Error("failed to seed lead", "email", lead.Email, "error", err)
			continue
		}
		seeded++
		log.Info("lead seeded", "email", result.Email, "score", result.Score, "intent", result.IntentLevel)
	}

	log.Info("seeding complete", "count", seeded)
}

func sampleLeads() []transport.ScoreLeadRequest {
	now := time.Now().UTC()
	daysAgo := func(days int) *time.Time {
		t := now.Add(-time.Duration(days) * 24 * time.Hour)
		return &t
	}
	company := func(name string) *string { return &name }

	return []transport.ScoreLeadRequest{
		{
			Email:               "priya.sharma@acmetech.io",
			Name:                "Priya Sharma",
			Company:             company("Acme Tech"),
			DemoRequested:       true,
			Registration:        true,
			PricingCompared:     true,
			LeadThroughReferral: true,
			EnquiryDate:         daysAgo(1),
		},
		{
			Email:           "marcus.webb@northwind.com",
			Name:            "Marcus Webb",
			Company:         company("Northwind Traders"),
			DemoRequested:   true,
			PricingCompared: true,
			EnquiryDate:     daysAgo(3),
		},
		{
			Email:               "elena.rossi@ferrostahl.de",
			Name:                "Elena Rossi",
			Company:             company("Ferrostahl GmbH"),
			Registration:        true,
			EnquiryCallWhatsapp: true,
			LeadThroughEvents:   true,
			EnquiryDate:         daysAgo(6),
		},
		{
			Email:           "james.okafor@brightpath.co",
			Name:            "James Okafor",
			Company:         company("Brightpath"),
			Registration:    true,
			LeadThroughCall: true,
			EnquiryDate:     daysAgo(10),
		},
		{
			Email:             "sofia.lindqvist@polarlabs.se",
			Name:              "Sofia Lindqvist",
			Company:           company("Polar Labs"),
			LeadThroughEvents: true,
			EnquiryDate:       daysAgo(14),
		},
		{
			Email:        "daniel.kim@gmail.com",
			Name:         "Daniel Kim",
			Registration: true,
		},
		{
			Email: "a.petrov@outlook.com",
			Name:  "Anna Petrov",
		},
		{
			Email:               "lucia.mendes@verdant.farm",
			Name:                "Lucia Mendes",
			Company:             company("Verdant Farms"),
			DemoRequested:       true,
			Registration:        true,
			EnquiryCallWhatsapp: true,
			PricingCompared:     true,
			LeadThroughReferral: true,
			EnquiryDate:         daysAgo(0),
		},
		{
			Email:           "tom.becker@quintessa.nl",
			Name:            "Tom Becker",
			Company:         company("Quintessa"),
			PricingCompared: true,
			EnquiryDate:     daysAgo(25),
		},
		{
			Email:               "mei.chen@lotusworks.cn",
			Name:                "Mei Chen",
			Company:             company("Lotus Works"),
			DemoRequested:       true,
			LeadThroughReferral: true,
			EnquiryDate:         daysAgo(4),
		},
	}
}
