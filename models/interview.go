package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// Interview question difficulties
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// InterviewQuestion is an open-ended prompt from the mock interview bank
type InterviewQuestion struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuestionText string         `gorm:"type:text;not null" json:"question_text"`
	RoleType     string         `gorm:"size:100;not null;index" json:"role_type"`
	Topic        string         `gorm:"size:100;not null;index" json:"topic"`
	Difficulty   string         `gorm:"size:20;not null;check:difficulty IN ('Easy', 'Medium', 'Hard')" json:"difficulty"`
	IsActive     bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// MockInterviewSession groups the answers a student gives in one sitting.
// A session is open while EndedAt is NULL.
type MockInterviewSession struct {
	ID         string               `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID  string               `gorm:"type:uuid;not null;index" json:"student_id"`
	StartedAt  time.Time            `gorm:"not null" json:"started_at"`
	EndedAt    *time.Time           `gorm:"index" json:"ended_at"`
	TotalScore float64              `gorm:"type:decimal(5,2);not null;default:0" json:"total_score"`
	AIContext  *InterviewContextDoc `gorm:"type:jsonb" json:"ai_context,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`

	Student   *User               `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Responses []InterviewResponse `gorm:"foreignKey:SessionID" json:"responses,omitempty"`
}

func (s *MockInterviewSession) IsOpen() bool {
	return s.EndedAt == nil
}

// InterviewContextDoc is the AI generated briefing stored on a session
type InterviewContextDoc struct {
	Context string         `json:"context"`
	Profile StudentProfile `json:"profile"`
}

func (d InterviewContextDoc) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *InterviewContextDoc) Scan(value interface{}) error {
	return scanJSON(value, d)
}

type InterviewResponse struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID         string    `gorm:"type:uuid;not null;index" json:"session_id"`
	QuestionID        string    `gorm:"type:uuid;not null;index" json:"question_id"`
	StudentAnswer     string    `gorm:"type:text;not null" json:"student_answer"`
	TranscribedAnswer *string   `gorm:"type:text" json:"transcribed_answer"`
	AudioURL          *string   `gorm:"size:500" json:"audio_url"`
	AIScore           float64   `gorm:"type:decimal(4,2);not null" json:"ai_score"`
	AIFeedback        string    `gorm:"type:text" json:"ai_feedback"`
	IdealAnswer       string    `gorm:"type:text" json:"ideal_answer"`
	CreatedAt         time.Time `json:"created_at"`

	Session  *MockInterviewSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Question *InterviewQuestion    `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// UserPerformanceMetric keeps a running average score per student and topic.
type UserPerformanceMetric struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_metric_student_topic" json:"student_id"`
	Topic         string    `gorm:"size:100;not null;uniqueIndex:idx_metric_student_topic" json:"topic"`
	AvgScore      float64   `gorm:"type:decimal(4,2);not null;default:0" json:"avg_score"`
	TotalAttempts int       `gorm:"not null;default:0" json:"total_attempts"`
	LastUpdated   time.Time `gorm:"not null" json:"last_updated"`

	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// AddAttempt folds a new score into the running average.
func (m *UserPerformanceMetric) AddAttempt(score float64, at time.Time) {
	m.TotalAttempts++
	m.AvgScore = Round2((m.AvgScore*float64(m.TotalAttempts-1) + score) / float64(m.TotalAttempts))
	m.LastUpdated = at
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
