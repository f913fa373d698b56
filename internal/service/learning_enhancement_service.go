package service

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/pkg/logger"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LearningEnhancementService provides the per-turn advisory operations:
// hints, conversation analysis, alternative responses and communication tips.
// All four consume the live transcript, never persisted state, and all four
// are total: any model failure returns a neutral default, never an error.
type LearningEnhancementService struct {
	AI PromptClient
}

func NewLearningEnhancementService(ai PromptClient) *LearningEnhancementService {
	return &LearningEnhancementService{AI: ai}
}

const (
	advisoryTemp          = 0.6
	hintTokens            = 300
	analysisTokens        = 400
	alternativeTokens     = 500
	tipTokens             = 300
	transcriptWindowTurns = 3
	contextMaxChars       = 500
	transcriptMaxChars    = 2000
)

// ScenarioContext scopes an advisory call to the running roleplay.
type ScenarioContext struct {
	Title             string `json:"title"`
	ScenarioType      string `json:"scenarioType"`
	PersonaName       string `json:"personaName"`
	PatientBackground string `json:"patientBackground"`
}

type HintRequest struct {
	Scenario      ScenarioContext          `json:"scenario"`
	AttemptID     uint                     `json:"attemptId"`
	RecentTurns   []model.ConversationTurn `json:"recentTurns"`
	LatestMessage string                   `json:"latestMessage" binding:"required"`
	Sentiment     string                   `json:"sentiment"`
}

// AnalysisRequest needs a transcript, either inline or recalled from the
// attempt's scratch copy via AttemptID.
type AnalysisRequest struct {
	Scenario   ScenarioContext          `json:"scenario"`
	AttemptID  uint                     `json:"attemptId"`
	Transcript []model.ConversationTurn `json:"transcript"`
}

type AlternativesRequest struct {
	Scenario      ScenarioContext `json:"scenario"`
	LatestMessage string          `json:"latestMessage" binding:"required"`
}

type TipsRequest struct {
	ScenarioType      string `json:"scenarioType" binding:"required"`
	PatientBackground string `json:"patientBackground"`
	CurrentIssue      string `json:"currentIssue"`
}

// GenerateHints returns up to two coaching hints for the current turn.
// Empty slice on any failure.
func (s *LearningEnhancementService) GenerateHints(req *HintRequest) []model.LearningHint {
	var b strings.Builder
	b.WriteString("You are a silent coach observing a care-worker roleplay.\n")
	writeScenarioContext(&b, req.Scenario)
	if req.Sentiment != "" {
		fmt.Fprintf(&b, "Persona's current emotional state: %s\n", req.Sentiment)
	}
	b.WriteString("\nRecent exchange:\n")
	writeTurns(&b, lastTurns(req.RecentTurns, transcriptWindowTurns))
	fmt.Fprintf(&b, "Care worker's latest message: %q\n\n", truncate(req.LatestMessage, contextMaxChars))
	b.WriteString("Suggest at most 2 short hints the care worker could use right now. ")
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString(`{"hints":[{"text":"...","category":"empathy|communication|professionalism|problem_solving","timing":"immediate|next_response","priority":"high|medium|low"}]}`)

	raw, err := s.AI.CompleteJSON("learning_hints", b.String(), advisoryTemp, hintTokens)
	if err != nil {
		logger.Log.Warn("hints: model call failed", zap.Error(err))
		return []model.LearningHint{}
	}

	var payload struct {
		Hints []struct {
			Text     string `json:"text"`
			Category string `json:"category"`
			Timing   string `json:"timing"`
			Priority string `json:"priority"`
		} `json:"hints"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("hints: unparsable model output", zap.Error(err))
		return []model.LearningHint{}
	}

	hints := []model.LearningHint{}
	for _, h := range payload.Hints {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		hints = append(hints, model.LearningHint{
			Text:     strings.TrimSpace(h.Text),
			Category: stringOr(h.Category, skillLabels, model.SkillCommunication),
			Timing:   stringOr(h.Timing, []string{"immediate", "next_response"}, "next_response"),
			Priority: stringOr(h.Priority, []string{"high", "medium", "low"}, "medium"),
		})
		if len(hints) == 2 {
			break
		}
	}
	return hints
}

func defaultAnalysis() *model.ConversationAnalysis {
	return &model.ConversationAnalysis{
		ToneTrend:           model.TrendStable,
		EngagementLevel:     5,
		MissedOpportunities: []string{},
		StrongMoments:       []string{},
		SuggestedDirection:  "",
		EmotionalState:      "calm",
	}
}

// AnalyzeConversation classifies the transcript so far. Neutral defaults on
// any failure.
func (s *LearningEnhancementService) AnalyzeConversation(req *AnalysisRequest) *model.ConversationAnalysis {
	var b strings.Builder
	b.WriteString("Assess this care-worker roleplay transcript.\n")
	writeScenarioContext(&b, req.Scenario)
	b.WriteString("\nTranscript:\n")
	writeTurns(&b, req.Transcript)
	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"toneTrend":"improving|stable|declining","engagementLevel":5,"missedOpportunities":["..."],"strongMoments":["..."],"suggestedDirection":"...","emotionalState":"..."}`)

	raw, err := s.AI.CompleteJSON("conversation_analysis", b.String(), advisoryTemp, analysisTokens)
	if err != nil {
		logger.Log.Warn("analysis: model call failed", zap.Error(err))
		return defaultAnalysis()
	}

	var payload struct {
		ToneTrend           string   `json:"toneTrend"`
		EngagementLevel     *int     `json:"engagementLevel"`
		MissedOpportunities []string `json:"missedOpportunities"`
		StrongMoments       []string `json:"strongMoments"`
		SuggestedDirection  string   `json:"suggestedDirection"`
		EmotionalState      string   `json:"emotionalState"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("analysis: unparsable model output", zap.Error(err))
		return defaultAnalysis()
	}

	analysis := defaultAnalysis()
	analysis.ToneTrend = model.Trend(stringOr(payload.ToneTrend,
		[]string{"improving", "stable", "declining"}, string(model.TrendStable)))
	if payload.EngagementLevel != nil {
		analysis.EngagementLevel = clampInt(*payload.EngagementLevel, 1, 10)
	}
	if payload.MissedOpportunities != nil {
		analysis.MissedOpportunities = payload.MissedOpportunities
	}
	if payload.StrongMoments != nil {
		analysis.StrongMoments = payload.StrongMoments
	}
	analysis.SuggestedDirection = strings.TrimSpace(payload.SuggestedDirection)
	if state := strings.TrimSpace(payload.EmotionalState); state != "" {
		analysis.EmotionalState = strings.ToLower(state)
	}
	return analysis
}

var alternativeCategories = []string{"empathetic", "professional", "problem_solving"}

var alternativeFallbacks = map[string]string{
	"empathetic":      "Acknowledge how the person is feeling before anything else.",
	"professional":    "Restate the point calmly, with clear next steps.",
	"problem_solving": "Ask what would make the situation easier right now.",
}

// GenerateAlternativeResponses rewrites the latest message three ways, one
// per fixed category. Empty slice when the model call or parse fails; when a
// usable response comes back, all three categories are always filled.
func (s *LearningEnhancementService) GenerateAlternativeResponses(req *AlternativesRequest) []model.AlternativeResponse {
	var b strings.Builder
	b.WriteString("A care worker in a roleplay just said:\n")
	fmt.Fprintf(&b, "%q\n", truncate(req.LatestMessage, contextMaxChars))
	writeScenarioContext(&b, req.Scenario)
	b.WriteString("\nRewrite it three ways: one empathetic, one professional, one problem_solving. ")
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString(`{"alternatives":[{"category":"empathetic|professional|problem_solving","text":"...","explanation":"..."}]}`)

	raw, err := s.AI.CompleteJSON("alternative_responses", b.String(), advisoryTemp, alternativeTokens)
	if err != nil {
		logger.Log.Warn("alternatives: model call failed", zap.Error(err))
		return []model.AlternativeResponse{}
	}

	var payload struct {
		Alternatives []struct {
			Category    string `json:"category"`
			Text        string `json:"text"`
			Explanation string `json:"explanation"`
		} `json:"alternatives"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("alternatives: unparsable model output", zap.Error(err))
		return []model.AlternativeResponse{}
	}

	byCategory := map[string]model.AlternativeResponse{}
	for _, a := range payload.Alternatives {
		cat := stringOr(a.Category, alternativeCategories, "")
		if cat == "" || strings.TrimSpace(a.Text) == "" {
			continue
		}
		if _, seen := byCategory[cat]; seen {
			continue
		}
		byCategory[cat] = model.AlternativeResponse{
			Category:    cat,
			Text:        strings.TrimSpace(a.Text),
			Explanation: strings.TrimSpace(a.Explanation),
		}
	}

	out := make([]model.AlternativeResponse, 0, len(alternativeCategories))
	for _, cat := range alternativeCategories {
		if alt, ok := byCategory[cat]; ok {
			out = append(out, alt)
			continue
		}
		out = append(out, model.AlternativeResponse{
			Category: cat,
			Text:     alternativeFallbacks[cat],
		})
	}
	return out
}

// GenerateCommunicationTips returns 3-4 free-text tips for the scenario at
// hand. Empty slice on any failure.
func (s *LearningEnhancementService) GenerateCommunicationTips(req *TipsRequest) []string {
	var b strings.Builder
	b.WriteString("Give practical communication tips for a care worker.\n")
	fmt.Fprintf(&b, "Scenario type: %s\n", req.ScenarioType)
	if req.PatientBackground != "" {
		fmt.Fprintf(&b, "Patient background: %s\n", truncate(req.PatientBackground, contextMaxChars))
	}
	if req.CurrentIssue != "" {
		fmt.Fprintf(&b, "Current issue: %s\n", truncate(req.CurrentIssue, contextMaxChars))
	}
	b.WriteString("\nRespond with a single JSON object containing 3 to 4 tips:\n")
	b.WriteString(`{"tips":["..."]}`)

	raw, err := s.AI.CompleteJSON("communication_tips", b.String(), advisoryTemp, tipTokens)
	if err != nil {
		logger.Log.Warn("tips: model call failed", zap.Error(err))
		return []string{}
	}

	var payload struct {
		Tips []string `json:"tips"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("tips: unparsable model output", zap.Error(err))
		return []string{}
	}

	tips := []string{}
	for _, t := range payload.Tips {
		if t = strings.TrimSpace(t); t != "" {
			tips = append(tips, t)
		}
		if len(tips) == 4 {
			break
		}
	}
	return tips
}

func writeScenarioContext(b *strings.Builder, sc ScenarioContext) {
	if sc.Title != "" {
		fmt.Fprintf(b, "Scenario: %s\n", sc.Title)
	}
	if sc.ScenarioType != "" {
		fmt.Fprintf(b, "Scenario type: %s\n", sc.ScenarioType)
	}
	if sc.PersonaName != "" {
		fmt.Fprintf(b, "Persona: %s\n", sc.PersonaName)
	}
	if sc.PatientBackground != "" {
		fmt.Fprintf(b, "Patient background: %s\n", truncate(sc.PatientBackground, contextMaxChars))
	}
}

func writeTurns(b *strings.Builder, turns []model.ConversationTurn) {
	total := 0
	for _, t := range turns {
		line := fmt.Sprintf("%s: %s\n", t.Role, t.Content)
		if total+len(line) > transcriptMaxChars {
			break
		}
		b.WriteString(line)
		total += len(line)
	}
}

func lastTurns(turns []model.ConversationTurn, n int) []model.ConversationTurn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
