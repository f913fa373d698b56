package model

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Scenario is one roleplay training exercise in the content catalog.
type Scenario struct {
	BaseModel
	Title             string     `gorm:"size:200;not null" json:"title"`
	Category          string     `gorm:"size:100;index" json:"category"`
	ScenarioType      string     `gorm:"size:50;index" json:"scenarioType"`
	Difficulty        Difficulty `gorm:"type:enum('beginner','intermediate','advanced');default:'intermediate';index" json:"difficulty"`
	Priority          Priority   `gorm:"type:enum('high','medium','low');default:'medium'" json:"priority"`
	Description       string     `gorm:"type:text" json:"description"`
	PersonaName       string     `gorm:"size:100" json:"personaName"`
	PatientBackground string     `gorm:"type:text" json:"patientBackground"`
	EstimatedMinutes  int        `gorm:"default:15" json:"estimatedMinutes"`
	IsActive          bool       `gorm:"default:true;index" json:"isActive"`
}

func (Scenario) TableName() string {
	return "scenarios"
}
