package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type ResumeReview struct {
	ID            string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        string            `gorm:"type:uuid;not null;index" json:"user_id"`
	ResumeText    string            `gorm:"type:text;not null" json:"resume_text"`
	ATSScore      int               `gorm:"not null" json:"ats_score"`
	OverallRating string            `gorm:"size:20;not null" json:"overall_rating"`
	Analysis      ResumeAnalysisDoc `gorm:"type:jsonb;not null" json:"analysis"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type ResumeImprovement struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"` // High, Medium or Low
}

type ATSBreakdown struct {
	KeywordsMatch   int `json:"keywords_match"`
	FormattingScore int `json:"formatting_score"`
	ContentQuality  int `json:"content_quality"`
}

// ResumeAnalysisDoc is persisted as JSONB in resume_reviews.analysis
type ResumeAnalysisDoc struct {
	Strengths       []string            `json:"strengths"`
	Weaknesses      []string            `json:"weaknesses"`
	KeyImprovements []ResumeImprovement `json:"key_improvements"`
	ATSAnalysis     ATSBreakdown        `json:"ats_analysis"`
	ConfidenceBoost string              `json:"confidence_boost"`
}

func (d ResumeAnalysisDoc) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *ResumeAnalysisDoc) Scan(value interface{}) error {
	return scanJSON(value, d)
}
