package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/database"
	"github.com/stemsi/riskwatch-backend/internal/logger"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "riskwatch-create-advisor")

	ctx := context.Background()

	// ─── Connect to PostgreSQL / Redis ─────────────────────────────────
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

	// ─── Initialize Service ────────────────────────────────────────────
	advisorRepo := repository.NewAdvisorRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	authService := service.NewAuthService(cfg, advisorRepo, sessionRepo)
	advisorService := service.NewAdvisorService(advisorRepo, sessionRepo, authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Advisor ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	fmt.Print("Role [advisor/admin] (default advisor): ")
	role, _ := reader.ReadString('\n')
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = string(model.RoleAdvisor)
	}
	if role != string(model.RoleAdvisor) && role != string(model.RoleAdmin) {
		fmt.Println("Error: Role must be advisor or admin")
		return
	}

	fmt.Print("Assigned student IDs, comma separated (optional): ")
	rawIDs, _ := reader.ReadString('\n')
	students, err := parseIDs(rawIDs)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	advisor, err := advisorService.Create(ctx, model.CreateAdvisorRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     model.Role(role),
		Students: students,
	})
	if errors.Is(err, service.ErrDuplicateEmail) {
		fmt.Printf("Error: an advisor with email %s already exists\n", email)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create advisor")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d, %d assigned students\n",
		advisor.Role, advisor.Name, advisor.Email, advisor.ID, len(advisor.Students))
}

func parseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid student ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
