package repository

import (
	"context"
	"log/slog"

	"github.com/krshsl/placeprep/backend/models"
)

func (r *GORMRepository) GetActiveAptitudeQuestions(ctx context.Context, questionType string, limit int) ([]models.AptitudeQuestion, error) {
	var questions []models.AptitudeQuestion
	err := r.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", questionType, true).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		slog.Error("Failed to get aptitude questions", "error", err, "type", questionType)
		return nil, err
	}
	return questions, nil
}

// GetActiveTechnicalQuestions filters by difficulty and, when topic is non-empty, by topic.
func (r *GORMRepository) GetActiveTechnicalQuestions(ctx context.Context, topic, difficulty string, limit int) ([]models.TechnicalQuestion, error) {
	var questions []models.TechnicalQuestion
	query := r.db.WithContext(ctx).Where("difficulty = ? AND is_active = ?", difficulty, true)
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	if err := query.Limit(limit).Find(&questions).Error; err != nil {
		slog.Error("Failed to get technical questions", "error", err, "topic", topic, "difficulty", difficulty)
		return nil, err
	}
	return questions, nil
}

func (r *GORMRepository) CreateAptitudeResult(ctx context.Context, result *models.AptitudeTestResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		slog.Error("Failed to save aptitude result", "error", err, "student_id", result.StudentID)
		return err
	}
	slog.Info("Aptitude result saved", "result_id", result.ID, "student_id", result.StudentID, "score", result.ScorePercentage)
	return nil
}

func (r *GORMRepository) CreateTechnicalResult(ctx context.Context, result *models.TechnicalTestResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		slog.Error("Failed to save technical result", "error", err, "student_id", result.StudentID)
		return err
	}
	slog.Info("Technical result saved", "result_id", result.ID, "student_id", result.StudentID, "score", result.ScorePercentage)
	return nil
}

func (r *GORMRepository) GetAptitudeResults(ctx context.Context, studentID string, limit int) ([]models.AptitudeTestResult, error) {
	var results []models.AptitudeTestResult
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("test_date DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		slog.Error("Failed to get aptitude results", "error", err, "student_id", studentID)
		return nil, err
	}
	return results, nil
}

func (r *GORMRepository) GetTechnicalResults(ctx context.Context, studentID string, limit int) ([]models.TechnicalTestResult, error) {
	var results []models.TechnicalTestResult
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("test_date DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		slog.Error("Failed to get technical results", "error", err, "student_id", studentID)
		return nil, err
	}
	return results, nil
}

func (r *GORMRepository) CountAptitudeQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AptitudeQuestion{}).Count(&count).Error
	return count, err
}

func (r *GORMRepository) CountTechnicalQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TechnicalQuestion{}).Count(&count).Error
	return count, err
}

func (r *GORMRepository) CreateAptitudeQuestions(ctx context.Context, questions []models.AptitudeQuestion) error {
	if err := r.db.WithContext(ctx).Create(&questions).Error; err != nil {
		slog.Error("Failed to create aptitude questions", "error", err, "count", len(questions))
		return err
	}
	return nil
}

func (r *GORMRepository) CreateTechnicalQuestions(ctx context.Context, questions []models.TechnicalQuestion) error {
	if err := r.db.WithContext(ctx).Create(&questions).Error; err != nil {
		slog.Error("Failed to create technical questions", "error", err, "count", len(questions))
		return err
	}
	return nil
}
