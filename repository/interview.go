package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/krshsl/placeprep/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionFilter narrows interview question lookups. Empty fields match anything.
type QuestionFilter struct {
	RoleType   string
	Topic      string
	Difficulty string
	Active     *bool
}

func (f QuestionFilter) apply(query *gorm.DB) *gorm.DB {
	if f.RoleType != "" {
		query = query.Where("role_type = ?", f.RoleType)
	}
	if f.Topic != "" {
		query = query.Where("topic = ?", f.Topic)
	}
	if f.Difficulty != "" {
		query = query.Where("difficulty = ?", f.Difficulty)
	}
	if f.Active != nil {
		query = query.Where("is_active = ?", *f.Active)
	}
	return query
}

// Session operations
func (r *GORMRepository) GetActiveMockSession(ctx context.Context, studentID string) (*models.MockInterviewSession, error) {
	var session models.MockInterviewSession
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND ended_at IS NULL", studentID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get active interview session", "error", err, "student_id", studentID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetMockSession(ctx context.Context, sessionID string) (*models.MockInterviewSession, error) {
	if !validID(sessionID) {
		return nil, nil
	}
	var session models.MockInterviewSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get interview session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) CreateMockSession(ctx context.Context, session *models.MockInterviewSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create interview session", "error", err, "student_id", session.StudentID)
		return err
	}
	slog.Info("Interview session created", "session_id", session.ID, "student_id", session.StudentID)
	return nil
}

func (r *GORMRepository) UpdateSessionContext(ctx context.Context, sessionID string, doc *models.InterviewContextDoc) error {
	err := r.db.WithContext(ctx).Model(&models.MockInterviewSession{}).
		Where("id = ?", sessionID).
		Update("ai_context", doc).Error
	if err != nil {
		slog.Error("Failed to store interview context", "error", err, "session_id", sessionID)
	}
	return err
}

func (r *GORMRepository) UpdateSessionTotalScore(ctx context.Context, sessionID string, total float64) error {
	err := r.db.WithContext(ctx).Model(&models.MockInterviewSession{}).
		Where("id = ?", sessionID).
		Update("total_score", total).Error
	if err != nil {
		slog.Error("Failed to update session score", "error", err, "session_id", sessionID)
	}
	return err
}

// EndMockSession closes a session. Already closed sessions are left untouched.
func (r *GORMRepository) EndMockSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.MockInterviewSession{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", endedAt).Error
	if err != nil {
		slog.Error("Failed to end interview session", "error", err, "session_id", sessionID)
		return err
	}
	slog.Info("Interview session ended", "session_id", sessionID)
	return nil
}

func (r *GORMRepository) GetStudentSessions(ctx context.Context, studentID string, limit int) ([]models.MockInterviewSession, error) {
	var sessions []models.MockInterviewSession
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Limit(limit).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Responses.Question").
		Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get interview sessions", "error", err, "student_id", studentID)
		return nil, err
	}
	return sessions, nil
}

// Question operations
func (r *GORMRepository) GetInterviewQuestion(ctx context.Context, questionID string) (*models.InterviewQuestion, error) {
	if !validID(questionID) {
		return nil, nil
	}
	var question models.InterviewQuestion
	if err := r.db.WithContext(ctx).Where("id = ?", questionID).First(&question).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		slog.Error("Failed to get interview question", "error", err, "question_id", questionID)
		return nil, err
	}
	return &question, nil
}

func (r *GORMRepository) GetInterviewQuestions(ctx context.Context, filter QuestionFilter) ([]models.InterviewQuestion, error) {
	var questions []models.InterviewQuestion
	if err := filter.apply(r.db.WithContext(ctx)).Order("created_at ASC").Find(&questions).Error; err != nil {
		slog.Error("Failed to get interview questions", "error", err)
		return nil, err
	}
	return questions, nil
}

func (r *GORMRepository) CreateInterviewQuestion(ctx context.Context, question *models.InterviewQuestion) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		slog.Error("Failed to create interview question", "error", err)
		return err
	}
	slog.Info("Interview question created", "question_id", question.ID, "topic", question.Topic)
	return nil
}

func (r *GORMRepository) CreateInterviewQuestions(ctx context.Context, questions []models.InterviewQuestion) error {
	if err := r.db.WithContext(ctx).Create(&questions).Error; err != nil {
		slog.Error("Failed to create interview questions", "error", err, "count", len(questions))
		return err
	}
	return nil
}

func (r *GORMRepository) UpdateInterviewQuestion(ctx context.Context, question *models.InterviewQuestion) error {
	err := r.db.WithContext(ctx).Model(question).
		Select("question_text", "role_type", "topic", "difficulty", "is_active").
		Updates(question).Error
	if err != nil {
		slog.Error("Failed to update interview question", "error", err, "question_id", question.ID)
		return err
	}
	slog.Info("Interview question updated", "question_id", question.ID)
	return nil
}

func (r *GORMRepository) CountInterviewQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InterviewQuestion{}).Count(&count).Error
	return count, err
}

// Response operations
func (r *GORMRepository) CreateInterviewResponse(ctx context.Context, response *models.InterviewResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		slog.Error("Failed to save interview response", "error", err, "session_id", response.SessionID)
		return err
	}
	slog.Info("Interview response saved", "response_id", response.ID, "session_id", response.SessionID, "score", response.AIScore)
	return nil
}

func (r *GORMRepository) GetSessionScores(ctx context.Context, sessionID string) ([]float64, error) {
	var scores []float64
	err := r.db.WithContext(ctx).Model(&models.InterviewResponse{}).
		Where("session_id = ?", sessionID).
		Pluck("ai_score", &scores).Error
	if err != nil {
		slog.Error("Failed to get session scores", "error", err, "session_id", sessionID)
		return nil, err
	}
	return scores, nil
}

// Performance metric operations
func (r *GORMRepository) GetPerformanceMetrics(ctx context.Context, studentID string) ([]models.UserPerformanceMetric, error) {
	var metrics []models.UserPerformanceMetric
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("last_updated DESC").
		Find(&metrics).Error
	if err != nil {
		slog.Error("Failed to get performance metrics", "error", err, "student_id", studentID)
		return nil, err
	}
	return metrics, nil
}

func (r *GORMRepository) GetWeakestMetrics(ctx context.Context, studentID string, limit int) ([]models.UserPerformanceMetric, error) {
	var metrics []models.UserPerformanceMetric
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("avg_score ASC").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		slog.Error("Failed to get weakest metrics", "error", err, "student_id", studentID)
		return nil, err
	}
	return metrics, nil
}

// insertMetricIfMissing creates the zero row for a student's topic, leaving an existing row untouched.
func insertMetricIfMissing(tx *gorm.DB, studentID, topic string) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "topic"}},
		DoNothing: true,
	}).Create(&models.UserPerformanceMetric{StudentID: studentID, Topic: topic, LastUpdated: time.Now()})
}

// RecordTopicScore folds a score into the running average for a student's topic.
// The row is created with ON CONFLICT DO NOTHING first so concurrent first answers
// both end up updating the same locked row.
func (r *GORMRepository) RecordTopicScore(ctx context.Context, studentID, topic string, score float64) (*models.UserPerformanceMetric, error) {
	var metric models.UserPerformanceMetric
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertMetricIfMissing(tx, studentID, topic).Error; err != nil {
			return err
		}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND topic = ?", studentID, topic).
			First(&metric).Error
		if err != nil {
			return err
		}
		metric.AddAttempt(score, time.Now())
		return tx.Save(&metric).Error
	})
	if err != nil {
		slog.Error("Failed to record topic score", "error", err, "student_id", studentID, "topic", topic)
		return nil, err
	}
	return &metric, nil
}
