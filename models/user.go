package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID                string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`
	Password          string         `gorm:"size:255" json:"-"` // bcrypt hash
	FullName          string         `gorm:"size:255" json:"full_name,omitempty"`
	Role              string         `gorm:"size:20;not null;default:'STUDENT';check:role IN ('STUDENT', 'ADMIN')" json:"role"`
	Department        *string        `gorm:"size:100" json:"department"`
	Year              *int           `json:"year"`
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	ResumeText        *string        `gorm:"type:text" json:"resume_text"`
	ResumeURL         *string        `gorm:"size:500" json:"resume_url"`
	Skills            pq.StringArray `gorm:"type:text[]" json:"skills"`
	CareerGoal        *string        `gorm:"size:255" json:"career_goal"`
	Interests         pq.StringArray `gorm:"type:text[]" json:"interests"`
	TargetCompanyType *string        `gorm:"size:100" json:"target_company_type"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// StudentProfile is the subset of a user that drives personalisation and evaluation prompts.
type StudentProfile struct {
	ResumeText        *string  `json:"resume_text"`
	Skills            []string `json:"skills"`
	CareerGoal        *string  `json:"career_goal"`
	Interests         []string `json:"interests"`
	TargetCompanyType *string  `json:"target_company_type"`
}

func (u *User) Profile() StudentProfile {
	return StudentProfile{
		ResumeText:        u.ResumeText,
		Skills:            []string(u.Skills),
		CareerGoal:        u.CareerGoal,
		Interests:         []string(u.Interests),
		TargetCompanyType: u.TargetCompanyType,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RefreshToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type PermanentToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// UserStats summarises the user table for the admin dashboard.
type UserStats struct {
	Total    int `json:"total"`
	Students int `json:"students"`
	Admins   int `json:"admins"`
	Active   int `json:"active"`
}

func ComputeUserStats(users []User) UserStats {
	stats := UserStats{Total: len(users)}
	for _, u := range users {
		switch u.Role {
		case RoleStudent:
			stats.Students++
		case RoleAdmin:
			stats.Admins++
		}
		if u.IsActive {
			stats.Active++
		}
	}
	return stats
}
