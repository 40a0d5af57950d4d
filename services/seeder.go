package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/insurelens/call-analyzer/backend/models"
	"github.com/insurelens/call-analyzer/backend/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with sample agents and open training
// sessions (idempotent, keyed on employee IDs)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	hireDate := func(year, month, day int) *time.Time {
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &t
	}

	agents := []models.Agent{
		{
			EmployeeID: "EMP-1001",
			FullName:   "Priya Raman",
			Department: "Claims",
			HireDate:   hireDate(2021, 3, 15),
		},
		{
			EmployeeID: "EMP-1002",
			FullName:   "Marcus Webb",
			Department: "Policy Services",
			HireDate:   hireDate(2019, 8, 1),
		},
		{
			EmployeeID: "EMP-1003",
			FullName:   "Elena Vasquez",
			Department: "Claims",
			HireDate:   hireDate(2023, 1, 9),
		},
		{
			EmployeeID: "EMP-1004",
			FullName:   "Tom Okafor",
			Department: "Retention",
			HireDate:   hireDate(2020, 11, 23),
		},
	}

	seeded := 0
	for _, agent := range agents {
		created, err := s.seedAgent(ctx, agent)
		if err != nil {
			slog.Error("Failed to seed agent", "employee_id", agent.EmployeeID, "error", err)
			continue
		}
		if created != nil {
			seeded++
			if err := s.seedTrainingSession(ctx, created.ID); err != nil {
				slog.Error("Failed to seed training session", "agent_id", created.ID, "error", err)
			}
		}
	}

	slog.Info("Database seeding completed", "agents_created", seeded)
	return nil
}

// seedAgent creates the agent unless its employee ID is already registered.
// Returns the created agent, or nil when it already existed.
func (s *DatabaseSeeder) seedAgent(ctx context.Context, agent models.Agent) (*models.Agent, error) {
	existing, err := s.repo.GetAgentByEmployeeID(ctx, agent.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("error checking agent %s: %w", agent.EmployeeID, err)
	}
	if existing != nil {
		slog.Info("Agent already exists, skipping", "employee_id", agent.EmployeeID)
		return nil, nil
	}

	if err := s.repo.CreateAgent(ctx, &agent); err != nil {
		return nil, fmt.Errorf("failed to create agent %s: %w", agent.EmployeeID, err)
	}

	slog.Info("Created agent", "employee_id", agent.EmployeeID, "full_name", agent.FullName)
	return &agent, nil
}

func (s *DatabaseSeeder) seedTrainingSession(ctx context.Context, agentID string) error {
	session := models.TrainingSession{
		AgentID:   agentID,
		Title:     "Onboarding Scenario",
		QueryText: sampleQueries[0],
		Status:    models.TrainingPending,
	}
	return s.repo.CreateTrainingSession(ctx, &session)
}
