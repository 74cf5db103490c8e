package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/krshsl/placeprep/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PermanentToken{},
		&models.AptitudeQuestion{},
		&models.TechnicalQuestion{},
		&models.AptitudeTestResult{},
		&models.TechnicalTestResult{},
		&models.InterviewQuestion{},
		&models.MockInterviewSession{},
		&models.InterviewResponse{},
		&models.UserPerformanceMetric{},
		&models.ResumeReview{},
	)
}

// Ping checks the underlying connection pool
func (r *GORMRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// validID reports whether id can be compared against a uuid column.
// Postgres rejects anything else with 22P02 instead of matching no rows.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile applies a column -> value map. Nil values are written as NULL.
func (r *GORMRepository) UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			slog.Error("Failed to update user profile", "error", result.Error, "user_id", userID)
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
		slog.Info("User profile updated", "user_id", userID, "fields", len(updates))
	}
	return r.GetUserByID(ctx, userID)
}

func (r *GORMRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		slog.Error("Failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// SetUserActive toggles the is_active flag. It reports false when no such user exists.
func (r *GORMRepository) SetUserActive(ctx context.Context, userID string, active bool) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		slog.Error("Failed to update user status", "error", result.Error, "user_id", userID)
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("User status updated", "user_id", userID, "is_active", active)
	}
	return result.RowsAffected > 0, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) CreatePermanentToken(ctx context.Context, token *models.PermanentToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create permanent token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetPermanentToken(ctx context.Context, token string) (*models.PermanentToken, error) {
	var permanentToken models.PermanentToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&permanentToken).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get permanent token", "error", err)
		return nil, err
	}
	return &permanentToken, nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PermanentToken{}).Error; err != nil {
			slog.Error("Failed to delete user permanent tokens", "error", err, "user_id", userID)
			return err
		}
		return nil
	})
}
