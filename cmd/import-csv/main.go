package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/database"
	"github.com/stemsi/riskwatch-backend/internal/logger"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/service"
)

func main() {
	var studentsPath, risksPath string
	flag.StringVar(&studentsPath, "students", "", "Path to the student snapshot CSV")
	flag.StringVar(&risksPath, "risks", "", "Path to the risk snapshot CSV")
	flag.Parse()

	if studentsPath == "" && risksPath == "" {
		fmt.Println("Usage: import-csv -students students.csv [-risks risks.csv]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "riskwatch-import-csv")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	importService := service.NewImportService(
		repository.NewStudentRepository(pool),
		repository.NewRiskRepository(pool),
		log,
	)

	// Students first so risk rows can reference them.
	if studentsPath != "" {
		run(ctx, "students", studentsPath, importService.ImportStudents)
	}
	if risksPath != "" {
		run(ctx, "risks", risksPath, importService.ImportRisks)
	}
}

type importFunc func(ctx context.Context, r io.Reader) (service.ImportResult, error)

func run(ctx context.Context, kind, path string, fn importFunc) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	res, err := fn(ctx, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: import %s from %s: %v\n", kind, path, err)
		os.Exit(1)
	}
	fmt.Printf("Imported %s: %d rows read, %d records upserted\n", kind, res.Rows, res.Upserted)
}
