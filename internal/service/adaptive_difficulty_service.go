package service

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/model"
	"caretrain_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PromptClient is the seam to the generative model. AIService implements it;
// tests inject fakes returning canned JSON or garbage.
type PromptClient interface {
	CompleteJSON(operation, prompt string, temperature float64, maxTokens int) (string, error)
}

// AttemptHistory is the slice of the history store the pipeline reads.
type AttemptHistory interface {
	FindByUser(userID uint) ([]model.ScenarioAttempt, error)
	GetUserStats(userID uint) (*model.UserStats, error)
	CompletedScenarioIDs(userID uint) ([]uint, error)
}

// PreferenceStore covers the one field group the preference updater writes.
type PreferenceStore interface {
	FindByID(id uint) (*model.User, error)
	ApplyRecommendation(userID uint, difficulty string, appliedAt time.Time, snapshot string) error
}

type ScenarioCatalog interface {
	ListActive() ([]model.Scenario, error)
}

// AdaptiveDifficultyService runs the performance-analysis -> recommendation
// -> content-ranking pipeline. Every public method is total: upstream
// failures degrade to documented defaults and are logged, never returned.
type AdaptiveDifficultyService struct {
	Attempts AttemptHistory
	Users    PreferenceStore
	Catalog  ScenarioCatalog
	AI       PromptClient
	Redis    *redis.Client
	Cfg      *config.Config
}

func NewAdaptiveDifficultyService(
	attempts AttemptHistory,
	users PreferenceStore,
	catalog ScenarioCatalog,
	ai PromptClient,
	rdb *redis.Client,
	cfg *config.Config,
) *AdaptiveDifficultyService {
	return &AdaptiveDifficultyService{
		Attempts: attempts,
		Users:    users,
		Catalog:  catalog,
		AI:       ai,
		Redis:    rdb,
		Cfg:      cfg,
	}
}

const (
	// Writes to the stored preference only happen above this confidence.
	confidenceThreshold = 0.7

	// Fallback score when history is too thin to average.
	insufficientDataScore = 75.0

	trendWindow     = 3
	trendDelta      = 5.0
	skillStrongFrom = 4.0
	skillWeakBelow  = 3.0
	neutralSkill    = 3.0

	scoreExactDifficulty   = 50
	scoreAdjacentTier      = 25
	scorePerChallengeArea  = 30
	scoreSuggestionMatch   = 40
	scorePriorityHigh      = 20
	scorePriorityMedium    = 10
	defaultRankLimit       = 5
	recommendationTokens   = 600
	recommendationTemp     = 0.3
	recommendationCacheKey = "adaptive:rec:%d:%s"
)

// Fixed anchors embedded in every recommendation prompt so the model cannot
// drift its tier semantics between calls.
const difficultyDefinitions = `Difficulty tier definitions:
- "beginner": short single-issue conversations, cooperative persona, low emotional intensity, frequent guidance.
- "intermediate": multi-step conversations, occasional resistance or confusion, moderate emotional intensity, limited guidance.
- "advanced": complex emotionally charged situations, conflicting needs, minimal guidance, realistic time pressure.`

var skillLabels = []string{
	model.SkillEmpathy,
	model.SkillCommunication,
	model.SkillProfessionalism,
	model.SkillProblemSolving,
}

func defaultProfile() *model.PerformanceProfile {
	return &model.PerformanceProfile{
		AverageScore:     insufficientDataScore,
		ConsistencyScore: 0.5,
		ImprovementTrend: model.TrendStable,
		StrengthAreas:    []string{"basic_engagement"},
		ChallengeAreas:   []string{"consistency"},
		EngagementLevel:  5,
	}
}

func defaultRecommendation(confidence float64) *model.DifficultyRecommendation {
	return &model.DifficultyRecommendation{
		RecommendedDifficulty: model.Intermediate,
		Confidence:            confidence,
		Reasoning:             "Defaulting to a balanced difficulty while more performance data is collected.",
		SpecificAdjustments: model.SpecificAdjustments{
			Pacing:       "normal",
			Complexity:   "standard",
			SupportLevel: "medium",
		},
		NextScenarioSuggestions: defaultSuggestions(),
	}
}

func defaultSuggestions() []string {
	return []string{"communication_basics", "empathy_practice", "problem_solving"}
}

// ComputeProfile reduces the user's attempt history into a fully populated
// performance profile. Insufficient history or a failed read yields the
// cold-start default, never an error.
func (s *AdaptiveDifficultyService) ComputeProfile(userID uint) *model.PerformanceProfile {
	attempts, err := s.Attempts.FindByUser(userID)
	if err != nil {
		logger.Log.Warn("profile: attempt history unavailable, using defaults",
			zap.Uint("userID", userID), zap.Error(err))
		return defaultProfile()
	}

	var completed []model.ScenarioAttempt
	for _, a := range attempts {
		if a.Progress == 100 {
			completed = append(completed, a)
		}
	}
	if len(completed) < 2 {
		return defaultProfile()
	}

	var scores []float64
	for _, a := range completed {
		if a.Score > 0 {
			scores = append(scores, float64(a.Score))
		}
	}

	average := insufficientDataScore
	if len(scores) > 0 {
		average = mean(scores)
	}

	consistency := math.Max(0, 1-math.Sqrt(populationVariance(scores))/s.consistencyNorm())

	strengths, challenges := skillAreas(completed)

	engagement := 5
	if stats, err := s.Attempts.GetUserStats(userID); err == nil {
		engagement = engagementLevel(stats)
	} else {
		logger.Log.Warn("profile: stats unavailable, using neutral engagement",
			zap.Uint("userID", userID), zap.Error(err))
	}

	return &model.PerformanceProfile{
		AverageScore:     average,
		ConsistencyScore: consistency,
		ImprovementTrend: scoreTrend(scores),
		StrengthAreas:    strengths,
		ChallengeAreas:   challenges,
		EngagementLevel:  engagement,
	}
}

func (s *AdaptiveDifficultyService) consistencyNorm() float64 {
	if s.Cfg != nil && s.Cfg.Adaptive.ConsistencyNorm > 0 {
		return s.Cfg.Adaptive.ConsistencyNorm
	}
	return 50
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// scoreTrend compares the last three scores against everything before them.
// Scores must be in chronological order.
func scoreTrend(scores []float64) model.Trend {
	if len(scores) < trendWindow {
		return model.TrendStable
	}
	earlier := scores[:len(scores)-trendWindow]
	if len(earlier) == 0 {
		return model.TrendStable
	}
	recent := mean(scores[len(scores)-trendWindow:])
	base := mean(earlier)
	switch {
	case recent > base+trendDelta:
		return model.TrendImproving
	case recent < base-trendDelta:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// skillAreas averages per-skill feedback across completed attempts. A skill
// missing from an attempt reads as the neutral 3. Neither returned set is
// ever empty: placeholders keep downstream consumers from branching on it.
func skillAreas(completed []model.ScenarioAttempt) (strengths, challenges []string) {
	for _, skill := range skillLabels {
		total := 0.0
		for _, a := range completed {
			total += attemptSkillAverage(a, skill)
		}
		avg := total / float64(len(completed))
		if avg >= skillStrongFrom {
			strengths = append(strengths, skill)
		} else if avg < skillWeakBelow {
			challenges = append(challenges, skill)
		}
	}

	if len(strengths) == 0 {
		strengths = []string{"basic_engagement"}
	}
	if len(challenges) == 0 {
		challenges = []string{"consistency"}
	}
	return strengths, challenges
}

func attemptSkillAverage(attempt model.ScenarioAttempt, skill string) float64 {
	if len(attempt.Responses) == 0 {
		return neutralSkill
	}
	total := 0.0
	for _, r := range attempt.Responses {
		total += skillValue(r.Feedback, skill)
	}
	return total / float64(len(attempt.Responses))
}

func skillValue(fb model.ResponseFeedback, skill string) float64 {
	var v *int
	switch skill {
	case model.SkillEmpathy:
		v = fb.Empathy
	case model.SkillCommunication:
		v = fb.Communication
	case model.SkillProfessionalism:
		v = fb.Professionalism
	case model.SkillProblemSolving:
		v = fb.ProblemSolving
	}
	if v == nil {
		return neutralSkill
	}
	return float64(*v)
}

func engagementLevel(stats *model.UserStats) int {
	completionRate := 0.0
	if stats.TotalAttempts > 0 {
		completionRate = float64(stats.CompletedScenarios) / float64(stats.TotalAttempts)
	}
	avgTime := 0.0
	if stats.CompletedScenarios > 0 {
		avgTime = float64(stats.TotalTimeMinutes) / float64(stats.CompletedScenarios)
	}
	raw := completionRate*5 + math.Min(avgTime/300, 1)*3 + float64(stats.WeeklyStreak)*0.5
	return int(math.Round(clampFloat(raw, 0, 10)))
}

// RecommendDifficulty builds the performance prompt, calls the model and
// normalizes whatever comes back. All failure modes degrade to defaults: a
// failed call implies confidence 0.5, a reasoning gap in an otherwise usable
// response implies 0.7.
func (s *AdaptiveDifficultyService) RecommendDifficulty(userID uint, currentFocus string) *model.DifficultyRecommendation {
	if cached := s.cachedRecommendation(userID, currentFocus); cached != nil {
		return cached
	}

	profile := s.ComputeProfile(userID)

	stats := &model.UserStats{}
	if st, err := s.Attempts.GetUserStats(userID); err == nil {
		stats = st
	}

	preference := string(model.Intermediate)
	if user, err := s.Users.FindByID(userID); err == nil && user.DifficultyPreference != "" {
		preference = user.DifficultyPreference
	}

	prompt := buildRecommendationPrompt(profile, stats, preference, currentFocus)

	raw, err := s.AI.CompleteJSON("difficulty_recommendation", prompt, recommendationTemp, recommendationTokens)
	if err != nil {
		logger.Log.Warn("recommendation: model call failed, using defaults",
			zap.Uint("userID", userID), zap.Error(err))
		return defaultRecommendation(0.5)
	}

	rec := parseRecommendation(raw)
	s.cacheRecommendation(userID, currentFocus, rec)
	return rec
}

func buildRecommendationPrompt(profile *model.PerformanceProfile, stats *model.UserStats, preference, currentFocus string) string {
	var b strings.Builder
	b.WriteString("You are calibrating roleplay training difficulty for a care worker.\n\n")
	b.WriteString("Performance profile:\n")
	fmt.Fprintf(&b, "- average score: %.1f/100\n", profile.AverageScore)
	fmt.Fprintf(&b, "- consistency: %.0f%%\n", profile.ConsistencyScore*100)
	fmt.Fprintf(&b, "- trend: %s\n", profile.ImprovementTrend)
	fmt.Fprintf(&b, "- completed scenarios: %d (of %d attempts)\n", stats.CompletedScenarios, stats.TotalAttempts)
	fmt.Fprintf(&b, "- total practice time: %d minutes\n", stats.TotalTimeMinutes)
	fmt.Fprintf(&b, "- engagement level: %d/10\n", profile.EngagementLevel)
	fmt.Fprintf(&b, "- strengths: %s\n", strings.Join(profile.StrengthAreas, ", "))
	fmt.Fprintf(&b, "- challenge areas: %s\n", strings.Join(profile.ChallengeAreas, ", "))
	fmt.Fprintf(&b, "- current stated preference: %s\n", preference)
	if currentFocus != "" {
		fmt.Fprintf(&b, "- currently working on: %s\n", currentFocus)
	}
	b.WriteString("\n")
	b.WriteString(difficultyDefinitions)
	b.WriteString("\n\nRespond with a single JSON object:\n")
	b.WriteString(`{"recommendedDifficulty":"beginner|intermediate|advanced","confidence":0.0,"reasoning":"...","specificAdjustments":{"pacing":"slower|normal|faster","complexity":"simplified|standard|enhanced","supportLevel":"high|medium|low"},"nextScenarioSuggestions":["content_type_label"]}`)
	return b.String()
}

type recommendationPayload struct {
	RecommendedDifficulty string   `json:"recommendedDifficulty"`
	Confidence            *float64 `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
	SpecificAdjustments   struct {
		Pacing       string `json:"pacing"`
		Complexity   string `json:"complexity"`
		SupportLevel string `json:"supportLevel"`
	} `json:"specificAdjustments"`
	NextScenarioSuggestions []string `json:"nextScenarioSuggestions"`
}

// parseRecommendation defaults every field individually so a response that
// gets most fields right is not rejected wholesale.
func parseRecommendation(raw string) *model.DifficultyRecommendation {
	var payload recommendationPayload
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("recommendation: unparsable model output, using defaults", zap.Error(err))
		return defaultRecommendation(0.7)
	}

	rec := defaultRecommendation(0.7)

	rec.RecommendedDifficulty = model.Difficulty(stringOr(
		payload.RecommendedDifficulty,
		[]string{"beginner", "intermediate", "advanced"},
		string(model.Intermediate),
	))
	if payload.Confidence != nil {
		rec.Confidence = clampFloat(*payload.Confidence, 0, 1)
	}
	if strings.TrimSpace(payload.Reasoning) != "" {
		rec.Reasoning = strings.TrimSpace(payload.Reasoning)
	}
	rec.SpecificAdjustments.Pacing = stringOr(payload.SpecificAdjustments.Pacing,
		[]string{"slower", "normal", "faster"}, "normal")
	rec.SpecificAdjustments.Complexity = stringOr(payload.SpecificAdjustments.Complexity,
		[]string{"simplified", "standard", "enhanced"}, "standard")
	rec.SpecificAdjustments.SupportLevel = stringOr(payload.SpecificAdjustments.SupportLevel,
		[]string{"high", "medium", "low"}, "medium")

	var suggestions []string
	for _, sg := range payload.NextScenarioSuggestions {
		if sg = strings.TrimSpace(sg); sg != "" {
			suggestions = append(suggestions, sg)
		}
	}
	if len(suggestions) > 0 {
		rec.NextScenarioSuggestions = suggestions
	}

	return rec
}

// RecommendScenarios ranks the active catalog against the user's
// recommendation and profile. Degrades to an unscored catalog prefix when
// history reads fail, and to an empty list when the catalog itself is down.
func (s *AdaptiveDifficultyService) RecommendScenarios(userID uint, limit int) []model.RankedScenario {
	if limit <= 0 {
		limit = defaultRankLimit
	}

	catalog, err := s.Catalog.ListActive()
	if err != nil {
		logger.Log.Error("ranking: catalog unavailable", zap.Error(err))
		return []model.RankedScenario{}
	}

	completed := map[uint]bool{}
	if ids, err := s.Attempts.CompletedScenarioIDs(userID); err == nil {
		for _, id := range ids {
			completed[id] = true
		}
	} else {
		logger.Log.Warn("ranking: completion history unavailable, returning catalog order",
			zap.Uint("userID", userID), zap.Error(err))
		return unrankedPrefix(catalog, limit)
	}

	rec := s.RecommendDifficulty(userID, "")
	profile := s.ComputeProfile(userID)

	var ranked []model.RankedScenario
	for _, sc := range catalog {
		if completed[sc.ID] {
			continue
		}
		ranked = append(ranked, model.RankedScenario{
			Scenario:            sc,
			RecommendationScore: scoreScenario(sc, rec, profile),
		})
	}

	// Stable sort keeps catalog order for equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecommendationScore > ranked[j].RecommendationScore
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []model.RankedScenario{}
	}
	return ranked
}

func unrankedPrefix(catalog []model.Scenario, limit int) []model.RankedScenario {
	out := []model.RankedScenario{}
	for _, sc := range catalog {
		if len(out) == limit {
			break
		}
		out = append(out, model.RankedScenario{Scenario: sc})
	}
	return out
}

func scoreScenario(sc model.Scenario, rec *model.DifficultyRecommendation, profile *model.PerformanceProfile) int {
	score := 0

	if sc.Difficulty == rec.RecommendedDifficulty {
		score += scoreExactDifficulty
	} else if sc.Difficulty == model.Intermediate || rec.RecommendedDifficulty == model.Intermediate {
		// Adjacent tier: one side is intermediate, the other is not.
		score += scoreAdjacentTier
	}

	category := strings.ToLower(sc.Category)
	for _, area := range profile.ChallengeAreas {
		keyword := strings.ReplaceAll(strings.ToLower(area), "_", " ")
		if keyword != "" && strings.Contains(category, keyword) {
			score += scorePerChallengeArea
		}
	}

	title := strings.ToLower(sc.Title)
	for _, suggestion := range rec.NextScenarioSuggestions {
		norm := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(suggestion), "_", " "))
		if norm == "" {
			continue
		}
		if strings.Contains(title, norm) || strings.Contains(category, norm) {
			score += scoreSuggestionMatch
			break
		}
	}

	switch sc.Priority {
	case model.PriorityHigh:
		score += scorePriorityHigh
	case model.PriorityMedium:
		score += scorePriorityMedium
	}

	return score
}

// ApplyRecommendation persists the recommended difficulty onto the user's
// preference record when confidence clears the threshold. Best-effort
// background update: low confidence is a deliberate no-op, and persistence
// errors are logged and dropped.
func (s *AdaptiveDifficultyService) ApplyRecommendation(userID uint) {
	rec := s.RecommendDifficulty(userID, "")
	if rec.Confidence <= confidenceThreshold {
		logger.Log.Debug("apply: confidence below threshold, keeping stored preference",
			zap.Uint("userID", userID), zap.Float64("confidence", rec.Confidence))
		return
	}

	// Read before write so the merge lands on the current row.
	user, err := s.Users.FindByID(userID)
	if err != nil {
		logger.Log.Warn("apply: user unavailable", zap.Uint("userID", userID), zap.Error(err))
		return
	}

	snapshot, err := json.Marshal(rec)
	if err != nil {
		logger.Log.Warn("apply: snapshot marshal failed", zap.Error(err))
		return
	}

	if err := s.Users.ApplyRecommendation(user.ID, string(rec.RecommendedDifficulty), time.Now(), string(snapshot)); err != nil {
		logger.Log.Warn("apply: preference write failed",
			zap.Uint("userID", userID), zap.Error(err))
		return
	}

	s.invalidateCache(userID)
}

func (s *AdaptiveDifficultyService) cacheKey(userID uint, focus string) string {
	return fmt.Sprintf(recommendationCacheKey, userID, focus)
}

func (s *AdaptiveDifficultyService) cachedRecommendation(userID uint, focus string) *model.DifficultyRecommendation {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(context.Background(), s.cacheKey(userID, focus)).Result()
	if err != nil {
		return nil
	}
	var rec model.DifficultyRecommendation
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil
	}
	return &rec
}

func (s *AdaptiveDifficultyService) cacheRecommendation(userID uint, focus string, rec *model.DifficultyRecommendation) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	ttl := 10 * time.Minute
	if s.Cfg != nil && s.Cfg.Adaptive.CacheTTLMinutes > 0 {
		ttl = time.Duration(s.Cfg.Adaptive.CacheTTLMinutes) * time.Minute
	}
	if err := s.Redis.Set(context.Background(), s.cacheKey(userID, focus), data, ttl).Err(); err != nil {
		logger.Log.Debug("recommendation cache write failed", zap.Error(err))
	}
}

func (s *AdaptiveDifficultyService) invalidateCache(userID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), s.cacheKey(userID, ""))
}
