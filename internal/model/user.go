package model

import (
	"time"
)

type UserRole string

const (
	CareWorker UserRole = "care_worker"
	Recruiter  UserRole = "recruiter"
	LDManager  UserRole = "ld_manager"
	SuperAdmin UserRole = "super_admin"
)

type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('care_worker','recruiter','ld_manager','super_admin');default:'care_worker'" json:"role"`
	Team     string   `gorm:"size:100" json:"team"`
	Language string   `gorm:"size:10;default:'en'" json:"language"`
	Disabled bool     `gorm:"default:false" json:"disabled"`

	// Adaptive difficulty preference subset. Only the preference updater in
	// the adaptive service writes these three fields.
	DifficultyPreference string     `gorm:"size:20;default:'intermediate'" json:"difficultyPreference"`
	LastDifficultyUpdate *time.Time `json:"lastDifficultyUpdate,omitempty"`
	LastRecommendation   string     `gorm:"type:json" json:"-"` // audit snapshot of the last applied recommendation

	WeeklyStreak int       `gorm:"default:0" json:"weeklyStreak"`
	LastLogin    time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen     time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
