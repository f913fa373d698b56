package model

// ConversationTurn is one message of a live roleplay transcript.
type ConversationTurn struct {
	Role    string `json:"role"` // care_worker | persona
	Content string `json:"content"`
}

// LearningHint is a per-turn nudge surfaced while the roleplay is running.
type LearningHint struct {
	Text     string `json:"text"`
	Category string `json:"category"` // skill label, see Skill* constants
	Timing   string `json:"timing"`   // immediate | next_response
	Priority string `json:"priority"` // high | medium | low
}

// ConversationAnalysis is a snapshot classification of a transcript.
type ConversationAnalysis struct {
	ToneTrend           Trend    `json:"toneTrend"`
	EngagementLevel     int      `json:"engagementLevel"` // 1-10
	MissedOpportunities []string `json:"missedOpportunities"`
	StrongMoments       []string `json:"strongMoments"`
	SuggestedDirection  string   `json:"suggestedDirection"`
	EmotionalState      string   `json:"emotionalState"`
}

// AlternativeResponse rephrases the care worker's latest message in one of
// the three fixed coaching categories.
type AlternativeResponse struct {
	Category    string `json:"category"` // empathetic | professional | problem_solving
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}
