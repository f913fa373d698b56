package model

import "time"

// ScenarioAttempt is one user's recorded pass through a scenario.
// Progress runs 0-100; only attempts at 100 count as completed.
type ScenarioAttempt struct {
	BaseModel
	UserID           uint              `gorm:"index;type:bigint unsigned" json:"userId"`
	ScenarioID       uint              `gorm:"index;type:bigint unsigned" json:"scenarioId"`
	Progress         int               `gorm:"default:0" json:"progress"`
	Score            int               `json:"score"`
	TimeSpentMinutes int               `json:"timeSpentMinutes"`
	StartedAt        time.Time         `json:"startedAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	Responses        []AttemptResponse `gorm:"foreignKey:AttemptID" json:"responses,omitempty"`
}

func (ScenarioAttempt) TableName() string {
	return "scenario_attempts"
}

// AttemptResponse is one turn of the roleplay: what the care worker said,
// what the persona answered, and the per-skill feedback for that turn.
type AttemptResponse struct {
	BaseModel
	AttemptID    uint             `gorm:"index;type:bigint unsigned" json:"attemptId"`
	Turn         int              `json:"turn"`
	UserMessage  string           `gorm:"type:text" json:"userMessage"`
	PersonaReply string           `gorm:"type:text" json:"personaReply"`
	Feedback     ResponseFeedback `gorm:"embedded;embeddedPrefix:feedback_" json:"feedback"`
}

func (AttemptResponse) TableName() string {
	return "attempt_responses"
}

// ResponseFeedback holds per-skill scores on a 1-5 scale. All fields are
// optional; a missing score reads as the neutral 3 when aggregated.
type ResponseFeedback struct {
	Empathy         *int   `json:"empathy,omitempty"`
	Communication   *int   `json:"communication,omitempty"`
	Professionalism *int   `json:"professionalism,omitempty"`
	ProblemSolving  *int   `json:"problemSolving,omitempty"`
	Comment         string `gorm:"type:text" json:"comment,omitempty"`
}
