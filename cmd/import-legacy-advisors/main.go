package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/database"
	"github.com/stemsi/riskwatch-backend/internal/logger"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/source"
)

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "Read and normalize advisors without writing them")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "riskwatch-import-legacy")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// ─── Read Legacy Advisors ──────────────────────────────────────────
	client, db, err := database.NewLegacyMongo(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to legacy MongoDB")
	}
	defer client.Disconnect(context.Background())

	legacy, err := source.NewLegacyAdvisorSource(db, log).All(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read legacy advisors")
	}
	log.Info().Int("count", len(legacy)).Msg("Legacy advisors loaded")

	if dryRun {
		for _, l := range legacy {
			fmt.Printf("%s\t%s\t%d students\thashed=%t\n", l.LegacyID, l.Advisor.Email, len(l.Advisor.Students), l.PasswordHashed)
		}
		return
	}

	// ─── Write Canonical Advisors ──────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	advisorRepo := repository.NewAdvisorRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	authService := service.NewAuthService(cfg, advisorRepo, sessionRepo)
	advisorService := service.NewAdvisorService(advisorRepo, sessionRepo, authService, log)

	report, err := advisorService.ImportLegacy(ctx, legacy)
	if err != nil {
		log.Fatal().Err(err).Int("imported", report.Imported).Msg("Legacy import aborted")
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
