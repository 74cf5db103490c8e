package repository

import (
	"context"
	"log/slog"

	"github.com/krshsl/placeprep/backend/models"
)

func (r *GORMRepository) CreateResumeReview(ctx context.Context, review *models.ResumeReview) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		slog.Error("Failed to save resume review", "error", err, "user_id", review.UserID)
		return err
	}
	slog.Info("Resume review saved", "review_id", review.ID, "user_id", review.UserID, "ats_score", review.ATSScore)
	return nil
}

func (r *GORMRepository) GetResumeReviews(ctx context.Context, userID string, limit int) ([]models.ResumeReview, error) {
	var reviews []models.ResumeReview
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		slog.Error("Failed to get resume reviews", "error", err, "user_id", userID)
		return nil, err
	}
	return reviews, nil
}

// ProbeResumeReviews runs a trivial read against resume_reviews for health checks
func (r *GORMRepository) ProbeResumeReviews(ctx context.Context) error {
	var ids []string
	return r.db.WithContext(ctx).Model(&models.ResumeReview{}).Limit(1).Pluck("id", &ids).Error
}
