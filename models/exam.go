package models

import (
	"time"

	"gorm.io/gorm"
)

// AptitudeQuestion is one multiple-choice item of the aptitude bank
type AptitudeQuestion struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Type          string         `gorm:"size:20;not null;index;check:type IN ('quantitative', 'logical', 'verbal')" json:"type"`
	OptionA       string         `gorm:"type:text;not null" json:"option_a"`
	OptionB       string         `gorm:"type:text;not null" json:"option_b"`
	OptionC       string         `gorm:"type:text;not null" json:"option_c"`
	OptionD       string         `gorm:"type:text;not null" json:"option_d"`
	CorrectAnswer string         `gorm:"size:1;not null" json:"-"`
	Difficulty    string         `gorm:"size:20;default:'medium'" json:"difficulty"`
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TechnicalQuestion is one multiple-choice item of the technical bank
type TechnicalQuestion struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Topic         string         `gorm:"size:20;not null;index;check:topic IN ('frontend', 'backend')" json:"topic"`
	OptionA       string         `gorm:"type:text;not null" json:"option_a"`
	OptionB       string         `gorm:"type:text;not null" json:"option_b"`
	OptionC       string         `gorm:"type:text;not null" json:"option_c"`
	OptionD       string         `gorm:"type:text;not null" json:"option_d"`
	CorrectAnswer string         `gorm:"size:1;not null" json:"-"`
	Difficulty    string         `gorm:"size:20;not null;index;check:difficulty IN ('easy', 'medium', 'hard')" json:"difficulty"`
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type AptitudeTestResult struct {
	ID               string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID        string    `gorm:"type:uuid;not null;index" json:"student_id"`
	TotalQuestions   int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers   int       `gorm:"not null" json:"correct_answers"`
	IncorrectAnswers int       `gorm:"not null" json:"incorrect_answers"`
	ScorePercentage  float64   `gorm:"type:decimal(5,2);not null" json:"score_percentage"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	ResumeAnalyzed   bool      `gorm:"not null;default:false" json:"resume_analyzed"`
	TabSwitches      int       `gorm:"not null;default:0" json:"tab_switches"`
	Violations       int       `gorm:"not null;default:0" json:"violations"`
	Flagged          bool      `gorm:"not null;default:false" json:"flagged"`
	TestDate         time.Time `gorm:"not null;index" json:"test_date"`
	CreatedAt        time.Time `json:"created_at"`

	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

type TechnicalTestResult struct {
	ID               string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID        string    `gorm:"type:uuid;not null;index" json:"student_id"`
	Topic            *string   `gorm:"size:20" json:"topic"`
	TotalQuestions   int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers   int       `gorm:"not null" json:"correct_answers"`
	IncorrectAnswers int       `gorm:"not null" json:"incorrect_answers"`
	ScorePercentage  float64   `gorm:"type:decimal(5,2);not null" json:"score_percentage"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	TabSwitches      int       `gorm:"not null;default:0" json:"tab_switches"`
	Violations       int       `gorm:"not null;default:0" json:"violations"`
	Flagged          bool      `gorm:"not null;default:false" json:"flagged"`
	TestDate         time.Time `gorm:"not null;index" json:"test_date"`
	CreatedAt        time.Time `json:"created_at"`

	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
