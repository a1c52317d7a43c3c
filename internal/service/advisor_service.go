package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/source"
)

// Advisor errors.
var (
	ErrAdvisorNotFound = errors.New("advisor not found")
	ErrDuplicateEmail  = errors.New("advisor with this email already exists")
	ErrNotInRoster     = errors.New("student is not in the advisor's roster")
	ErrSelfDelete      = errors.New("advisors cannot delete themselves")
)

// PasswordHasher hashes plaintext passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// AdvisorService handles advisor accounts and rosters.
type AdvisorService struct {
	advisors AdvisorStore
	sessions SessionStore
	hasher   PasswordHasher
	log      zerolog.Logger
}

// NewAdvisorService creates a new AdvisorService.
func NewAdvisorService(advisors AdvisorStore, sessions SessionStore, hasher PasswordHasher, log zerolog.Logger) *AdvisorService {
	return &AdvisorService{
		advisors: advisors,
		sessions: sessions,
		hasher:   hasher,
		log:      log.With().Str("component", "advisor_service").Logger(),
	}
}

func advisorErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAdvisorNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrDuplicateEmail
	}
	return err
}

// List retrieves all advisors.
func (s *AdvisorService) List(ctx context.Context) ([]model.Advisor, error) {
	return s.advisors.List(ctx)
}

// GetByID retrieves an advisor by ID.
func (s *AdvisorService) GetByID(ctx context.Context, id int) (*model.Advisor, error) {
	a, err := s.advisors.GetByID(ctx, id)
	return a, advisorErr(err)
}

// Create creates an advisor account with an optional initial roster.
func (s *AdvisorService) Create(ctx context.Context, req model.CreateAdvisorRequest) (*model.Advisor, error) {
	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleAdvisor
	}
	students := req.Students
	if students == nil {
		students = []int{}
	}

	a := &model.Advisor{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		Students:     students,
	}
	if err := s.advisors.Create(ctx, a); err != nil {
		return nil, advisorErr(err)
	}

	s.log.Info().Int("advisor_id", a.ID).Str("role", string(a.Role)).Msg("Advisor created")
	return a, nil
}

// Update modifies an advisor. A role or password change ends the current
// session so the advisor logs in again with fresh claims.
func (s *AdvisorService) Update(ctx context.Context, id int, req model.UpdateAdvisorRequest) (*model.Advisor, error) {
	current, err := s.advisors.GetByID(ctx, id)
	if err != nil {
		return nil, advisorErr(err)
	}

	a := &model.Advisor{
		ID:       id,
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		Students: current.Students,
	}
	if req.Password != "" {
		if a.PasswordHash, err = s.hasher.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.advisors.Update(ctx, a); err != nil {
		return nil, advisorErr(err)
	}

	if req.Password != "" || current.Role != req.Role {
		if err := s.sessions.Delete(ctx, id); err != nil {
			s.log.Warn().Err(err).Int("advisor_id", id).Msg("Failed to reset session after update")
		}
	}
	return a, nil
}

// Delete removes an advisor and ends its session.
func (s *AdvisorService) Delete(ctx context.Context, actorID, id int) error {
	if actorID == id {
		return ErrSelfDelete
	}
	if err := s.advisors.Delete(ctx, id); err != nil {
		return advisorErr(err)
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Int("advisor_id", id).Msg("Failed to reset session after delete")
	}
	return nil
}

// GetRoster returns an advisor's assigned StudentIDs.
func (s *AdvisorService) GetRoster(ctx context.Context, advisorID int) ([]int, error) {
	if _, err := s.advisors.GetByID(ctx, advisorID); err != nil {
		return nil, advisorErr(err)
	}
	return s.advisors.GetRoster(ctx, advisorID)
}

// ReplaceRoster replaces an advisor's roster wholesale.
func (s *AdvisorService) ReplaceRoster(ctx context.Context, advisorID int, ids []int) ([]int, error) {
	if err := s.advisors.ReplaceRoster(ctx, advisorID, ids); err != nil {
		return nil, advisorErr(err)
	}
	return s.advisors.GetRoster(ctx, advisorID)
}

// AddToRoster assigns a student to an advisor.
func (s *AdvisorService) AddToRoster(ctx context.Context, advisorID, studentID int) error {
	return advisorErr(s.advisors.AddToRoster(ctx, advisorID, studentID))
}

// RemoveFromRoster unassigns a student from an advisor.
func (s *AdvisorService) RemoveFromRoster(ctx context.Context, advisorID, studentID int) error {
	err := s.advisors.RemoveFromRoster(ctx, advisorID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInRoster
	}
	return err
}

// LegacyImportReport summarizes an import from the legacy document store.
type LegacyImportReport struct {
	Imported   int      `json:"imported"`
	Duplicates []string `json:"duplicates"`
	Skipped    []string `json:"skipped_refs"`
}

// ImportLegacy creates advisors read from the legacy store. Existing emails
// are reported and left untouched. Clear-text passwords are hashed.
func (s *AdvisorService) ImportLegacy(ctx context.Context, legacy []source.LegacyAdvisor) (LegacyImportReport, error) {
	report := LegacyImportReport{Duplicates: []string{}, Skipped: []string{}}

	for _, l := range legacy {
		a := l.Advisor
		a.PasswordHash = l.Password
		if !l.PasswordHashed {
			if l.Password == "" {
				s.log.Warn().Str("legacy_id", l.LegacyID).Msg("Legacy advisor has no password, skipping")
				continue
			}
			hash, err := s.hasher.HashPassword(l.Password)
			if err != nil {
				return report, fmt.Errorf("hash password for %s: %w", a.Email, err)
			}
			a.PasswordHash = hash
		}

		if err := s.advisors.Create(ctx, &a); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				report.Duplicates = append(report.Duplicates, a.Email)
				continue
			}
			return report, fmt.Errorf("create %s: %w", a.Email, err)
		}

		report.Imported++
		for _, ref := range l.Skipped {
			report.Skipped = append(report.Skipped, a.Email+":"+ref)
		}
	}
	return report, nil
}
