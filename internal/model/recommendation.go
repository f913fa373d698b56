package model

// Skill labels used by feedback aggregation and content matching.
const (
	SkillEmpathy         = "empathy"
	SkillCommunication   = "communication"
	SkillProfessionalism = "professionalism"
	SkillProblemSolving  = "problem_solving"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// PerformanceProfile is the normalized view of a user's attempt history.
// It is computed on demand and never persisted; every field is always set.
type PerformanceProfile struct {
	AverageScore     float64  `json:"averageScore"`
	ConsistencyScore float64  `json:"consistencyScore"`
	ImprovementTrend Trend    `json:"improvementTrend"`
	StrengthAreas    []string `json:"strengthAreas"`
	ChallengeAreas   []string `json:"challengeAreas"`
	EngagementLevel  int      `json:"engagementLevel"`
}

// UserStats is the aggregate view the history store exposes.
type UserStats struct {
	TotalAttempts      int `json:"totalAttempts"`
	CompletedScenarios int `json:"completedScenarios"`
	TotalTimeMinutes   int `json:"totalTimeMinutes"`
	WeeklyStreak       int `json:"weeklyStreak"`
}

type SpecificAdjustments struct {
	Pacing       string `json:"pacing"`       // slower | normal | faster
	Complexity   string `json:"complexity"`   // simplified | standard | enhanced
	SupportLevel string `json:"supportLevel"` // high | medium | low
}

// DifficultyRecommendation is produced once per request. Every field carries
// a safe default so callers never see a missing value, even when the model
// call fails outright.
type DifficultyRecommendation struct {
	RecommendedDifficulty   Difficulty          `json:"recommendedDifficulty"`
	Confidence              float64             `json:"confidence"`
	Reasoning               string              `json:"reasoning"`
	SpecificAdjustments     SpecificAdjustments `json:"specificAdjustments"`
	NextScenarioSuggestions []string            `json:"nextScenarioSuggestions"`
}

// RankedScenario is a catalog item scored against a recommendation.
// Computed fresh per request, never stored.
type RankedScenario struct {
	Scenario
	RecommendationScore int `json:"recommendationScore"`
}
