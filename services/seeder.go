package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krshsl/placeprep/backend/models"
	"golang.org/x/crypto/bcrypt"
)

// SeedStore is what the seeder needs from the repository
type SeedStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	CountAptitudeQuestions(ctx context.Context) (int64, error)
	CreateAptitudeQuestions(ctx context.Context, questions []models.AptitudeQuestion) error
	CountTechnicalQuestions(ctx context.Context) (int64, error)
	CreateTechnicalQuestions(ctx context.Context, questions []models.TechnicalQuestion) error
	CountInterviewQuestions(ctx context.Context) (int64, error)
	CreateInterviewQuestions(ctx context.Context, questions []models.InterviewQuestion) error
}

// DatabaseSeeder loads the question banks and, outside production, the demo accounts
type DatabaseSeeder struct {
	repo      SeedStore
	demoUsers bool
}

func NewDatabaseSeeder(repo SeedStore, demoUsers bool) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo, demoUsers: demoUsers}
}

const seedPassword = "password"

// SeedDatabase is idempotent: users are matched by email and each bank is only loaded while empty
func (s *DatabaseSeeder) SeedDatabase(ctx context.Context) error {
	if s.demoUsers {
		if err := s.seedDemoUsers(ctx); err != nil {
			return err
		}
	} else {
		slog.Info("Skipping demo accounts")
	}

	if err := seedBank(ctx, "aptitude", s.repo.CountAptitudeQuestions, func(ctx context.Context) error {
		return s.repo.CreateAptitudeQuestions(ctx, aptitudeSeed())
	}); err != nil {
		return err
	}
	if err := seedBank(ctx, "technical", s.repo.CountTechnicalQuestions, func(ctx context.Context) error {
		return s.repo.CreateTechnicalQuestions(ctx, technicalSeed())
	}); err != nil {
		return err
	}
	if err := seedBank(ctx, "interview", s.repo.CountInterviewQuestions, func(ctx context.Context) error {
		return s.repo.CreateInterviewQuestions(ctx, interviewSeed())
	}); err != nil {
		return err
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

func seedBank(ctx context.Context, name string, count func(context.Context) (int64, error), create func(context.Context) error) error {
	n, err := count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count %s questions: %w", name, err)
	}
	if n > 0 {
		slog.Info("Question bank already seeded, skipping", "bank", name, "count", n)
		return nil
	}
	if err := create(ctx); err != nil {
		return fmt.Errorf("failed to seed %s questions: %w", name, err)
	}
	slog.Info("Seeded question bank", "bank", name)
	return nil
}

func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}
	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	slog.Info("Created user", "email", user.Email, "role", user.Role)
	return nil
}

func (s *DatabaseSeeder) seedDemoUsers(ctx context.Context) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for _, user := range seedUsers(string(hashedPassword)) {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}
	return nil
}

func seedUsers(hashedPassword string) []models.User {
	department := "Computer Science"
	year := 3
	goal := "Backend Developer"
	company := "Product"
	return []models.User{
		{
			Email:    "admin@placeprep.dev",
			Password: hashedPassword,
			FullName: "Placement Admin",
			Role:     models.RoleAdmin,
			IsActive: true,
		},
		{
			Email:             "student@placeprep.dev",
			Password:          hashedPassword,
			FullName:          "Demo Student",
			Role:              models.RoleStudent,
			Department:        &department,
			Year:              &year,
			IsActive:          true,
			Skills:            []string{"Go", "SQL", "React"},
			Interests:         []string{"Databases", "System Design"},
			CareerGoal:        &goal,
			TargetCompanyType: &company,
		},
	}
}
