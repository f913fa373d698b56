package service

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/model"
	"errors"
	"testing"
	"time"
)

type fakeAttemptHistory struct {
	attempts     []model.ScenarioAttempt
	attemptsErr  error
	stats        *model.UserStats
	statsErr     error
	completedIDs []uint
	completedErr error
}

func (f *fakeAttemptHistory) FindByUser(userID uint) ([]model.ScenarioAttempt, error) {
	return f.attempts, f.attemptsErr
}

func (f *fakeAttemptHistory) GetUserStats(userID uint) (*model.UserStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats == nil {
		return &model.UserStats{}, nil
	}
	return f.stats, nil
}

func (f *fakeAttemptHistory) CompletedScenarioIDs(userID uint) ([]uint, error) {
	return f.completedIDs, f.completedErr
}

type fakePreferenceStore struct {
	user       *model.User
	findErr    error
	applyErr   error
	applied    bool
	difficulty string
	snapshot   string
}

func (f *fakePreferenceStore) FindByID(id uint) (*model.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.user == nil {
		return &model.User{}, nil
	}
	return f.user, nil
}

func (f *fakePreferenceStore) ApplyRecommendation(userID uint, difficulty string, appliedAt time.Time, snapshot string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = true
	f.difficulty = difficulty
	f.snapshot = snapshot
	return nil
}

type fakeCatalog struct {
	scenarios []model.Scenario
	err       error
}

func (f *fakeCatalog) ListActive() ([]model.Scenario, error) {
	return f.scenarios, f.err
}

type fakePrompt struct {
	response string
	err      error
	calls    int
}

func (f *fakePrompt) CompleteJSON(operation, prompt string, temperature float64, maxTokens int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Adaptive: config.AdaptiveConfig{ConsistencyNorm: 50, CacheTTLMinutes: 10},
	}
}

func newTestService(h *fakeAttemptHistory, u *fakePreferenceStore, c *fakeCatalog, p *fakePrompt) *AdaptiveDifficultyService {
	return NewAdaptiveDifficultyService(h, u, c, p, nil, testConfig())
}

func intPtr(v int) *int { return &v }

func completedAttempt(score int) model.ScenarioAttempt {
	return model.ScenarioAttempt{Progress: 100, Score: score}
}

func TestComputeProfileColdStart(t *testing.T) {
	tests := []struct {
		name    string
		history *fakeAttemptHistory
	}{
		{"no attempts", &fakeAttemptHistory{}},
		{"history read fails", &fakeAttemptHistory{attemptsErr: errors.New("db down")}},
		{"one completed attempt", &fakeAttemptHistory{attempts: []model.ScenarioAttempt{
			completedAttempt(90),
			{Progress: 40, Score: 0},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(tt.history, &fakePreferenceStore{}, &fakeCatalog{}, &fakePrompt{})
			got := s.ComputeProfile(1)

			if got.AverageScore != 75 {
				t.Errorf("AverageScore = %v, want 75", got.AverageScore)
			}
			if got.ConsistencyScore != 0.5 {
				t.Errorf("ConsistencyScore = %v, want 0.5", got.ConsistencyScore)
			}
			if got.ImprovementTrend != model.TrendStable {
				t.Errorf("ImprovementTrend = %v, want stable", got.ImprovementTrend)
			}
			if len(got.StrengthAreas) != 1 || got.StrengthAreas[0] != "basic_engagement" {
				t.Errorf("StrengthAreas = %v, want [basic_engagement]", got.StrengthAreas)
			}
			if len(got.ChallengeAreas) != 1 || got.ChallengeAreas[0] != "consistency" {
				t.Errorf("ChallengeAreas = %v, want [consistency]", got.ChallengeAreas)
			}
			if got.EngagementLevel != 5 {
				t.Errorf("EngagementLevel = %v, want 5", got.EngagementLevel)
			}
		})
	}
}

func TestComputeProfileAggregates(t *testing.T) {
	history := &fakeAttemptHistory{
		attempts: []model.ScenarioAttempt{
			completedAttempt(50),
			completedAttempt(50),
			completedAttempt(50),
			{Progress: 60, Score: 95}, // incomplete, must not count
			completedAttempt(90),
			completedAttempt(90),
			completedAttempt(90),
		},
		stats: &model.UserStats{TotalAttempts: 7, CompletedScenarios: 6, TotalTimeMinutes: 120},
	}
	s := newTestService(history, &fakePreferenceStore{}, &fakeCatalog{}, &fakePrompt{})

	got := s.ComputeProfile(1)

	if got.AverageScore != 70 {
		t.Errorf("AverageScore = %v, want 70", got.AverageScore)
	}
	// Scores 50,50,50,90,90,90: population variance 400, stddev 20, 1-20/50.
	if diff := got.ConsistencyScore - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ConsistencyScore = %v, want 0.6", got.ConsistencyScore)
	}
	if got.ImprovementTrend != model.TrendImproving {
		t.Errorf("ImprovementTrend = %v, want improving", got.ImprovementTrend)
	}
}

func TestScoreTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   model.Trend
	}{
		{"too few scores", []float64{80, 90}, model.TrendStable},
		{"no earlier baseline", []float64{50, 70, 90}, model.TrendStable},
		{"improving", []float64{50, 50, 50, 90, 90, 90}, model.TrendImproving},
		{"declining", []float64{90, 90, 90, 50, 50, 50}, model.TrendDeclining},
		{"within delta", []float64{70, 70, 70, 74, 74, 74}, model.TrendStable},
		{"just past delta", []float64{70, 70, 70, 76, 76, 76}, model.TrendImproving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreTrend(tt.scores); got != tt.want {
				t.Errorf("scoreTrend(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestSkillAreas(t *testing.T) {
	completed := []model.ScenarioAttempt{
		{
			Progress: 100,
			Responses: []model.AttemptResponse{
				{Feedback: model.ResponseFeedback{Empathy: intPtr(5), Communication: intPtr(2)}},
				{Feedback: model.ResponseFeedback{Empathy: intPtr(4), Communication: intPtr(2)}},
			},
		},
		{
			Progress: 100,
			Responses: []model.AttemptResponse{
				{Feedback: model.ResponseFeedback{Empathy: intPtr(5), Communication: intPtr(2)}},
			},
		},
	}

	strengths, challenges := skillAreas(completed)

	if len(strengths) != 1 || strengths[0] != model.SkillEmpathy {
		t.Errorf("strengths = %v, want [empathy]", strengths)
	}
	if len(challenges) != 1 || challenges[0] != model.SkillCommunication {
		t.Errorf("challenges = %v, want [communication]", challenges)
	}
}

func TestSkillAreasNeutralDefaults(t *testing.T) {
	// No feedback at all: every skill reads neutral 3, so neither bucket
	// fills and the placeholders take over.
	completed := []model.ScenarioAttempt{
		{Progress: 100},
		{Progress: 100},
	}

	strengths, challenges := skillAreas(completed)

	if len(strengths) != 1 || strengths[0] != "basic_engagement" {
		t.Errorf("strengths = %v, want [basic_engagement]", strengths)
	}
	if len(challenges) != 1 || challenges[0] != "consistency" {
		t.Errorf("challenges = %v, want [consistency]", challenges)
	}
}

func TestEngagementLevel(t *testing.T) {
	tests := []struct {
		name  string
		stats model.UserStats
		want  int
	}{
		{"no activity", model.UserStats{}, 0},
		{"full completion no time", model.UserStats{TotalAttempts: 4, CompletedScenarios: 4}, 5},
		{"time component capped", model.UserStats{TotalAttempts: 2, CompletedScenarios: 2, TotalTimeMinutes: 5000}, 8},
		{"streak pushes to cap", model.UserStats{TotalAttempts: 2, CompletedScenarios: 2, TotalTimeMinutes: 5000, WeeklyStreak: 10}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engagementLevel(&tt.stats); got != tt.want {
				t.Errorf("engagementLevel(%+v) = %d, want %d", tt.stats, got, tt.want)
			}
		})
	}
}

func TestRecommendDifficultyModelFailure(t *testing.T) {
	s := newTestService(
		&fakeAttemptHistory{},
		&fakePreferenceStore{},
		&fakeCatalog{},
		&fakePrompt{err: errors.New("timeout")},
	)

	got := s.RecommendDifficulty(1, "")

	if got.RecommendedDifficulty != model.Intermediate {
		t.Errorf("RecommendedDifficulty = %v, want intermediate", got.RecommendedDifficulty)
	}
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", got.Confidence)
	}
	if got.SpecificAdjustments.Pacing != "normal" ||
		got.SpecificAdjustments.Complexity != "standard" ||
		got.SpecificAdjustments.SupportLevel != "medium" {
		t.Errorf("SpecificAdjustments = %+v, want normal/standard/medium", got.SpecificAdjustments)
	}
	if len(got.NextScenarioSuggestions) == 0 {
		t.Error("NextScenarioSuggestions empty, want defaults")
	}
}

func TestRecommendDifficultyUnparsableOutput(t *testing.T) {
	s := newTestService(
		&fakeAttemptHistory{},
		&fakePreferenceStore{},
		&fakeCatalog{},
		&fakePrompt{response: "I think intermediate would suit them best."},
	)

	got := s.RecommendDifficulty(1, "")

	if got.RecommendedDifficulty != model.Intermediate {
		t.Errorf("RecommendedDifficulty = %v, want intermediate", got.RecommendedDifficulty)
	}
	if got.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", got.Confidence)
	}
}

func TestRecommendDifficultyParsesResponse(t *testing.T) {
	s := newTestService(
		&fakeAttemptHistory{},
		&fakePreferenceStore{user: &model.User{DifficultyPreference: "beginner"}},
		&fakeCatalog{},
		&fakePrompt{response: "```json\n" + `{
			"recommendedDifficulty": "Advanced",
			"confidence": 1.4,
			"reasoning": "Strong recent run.",
			"specificAdjustments": {"pacing": "faster", "complexity": "enhanced", "supportLevel": "low"},
			"nextScenarioSuggestions": ["dementia_care", " ", "safeguarding"]
		}` + "\n```"},
	)

	got := s.RecommendDifficulty(1, "empathy")

	if got.RecommendedDifficulty != model.Advanced {
		t.Errorf("RecommendedDifficulty = %v, want advanced", got.RecommendedDifficulty)
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", got.Confidence)
	}
	if got.Reasoning != "Strong recent run." {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
	if got.SpecificAdjustments.Pacing != "faster" {
		t.Errorf("Pacing = %q, want faster", got.SpecificAdjustments.Pacing)
	}
	if len(got.NextScenarioSuggestions) != 2 {
		t.Errorf("NextScenarioSuggestions = %v, want blank entries dropped", got.NextScenarioSuggestions)
	}
}

func TestParseRecommendationPartialFields(t *testing.T) {
	got := parseRecommendation(`{"recommendedDifficulty":"hardcore","confidence":0.85}`)

	if got.RecommendedDifficulty != model.Intermediate {
		t.Errorf("unknown difficulty should fall back to intermediate, got %v", got.RecommendedDifficulty)
	}
	if got.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85 preserved", got.Confidence)
	}
	if got.Reasoning == "" {
		t.Error("Reasoning should fall back to the default text")
	}
	if got.SpecificAdjustments.SupportLevel != "medium" {
		t.Errorf("SupportLevel = %q, want medium", got.SpecificAdjustments.SupportLevel)
	}
}

func catalogScenario(id uint, title, category string, difficulty model.Difficulty, priority model.Priority) model.Scenario {
	sc := model.Scenario{
		Title:      title,
		Category:   category,
		Difficulty: difficulty,
		Priority:   priority,
		IsActive:   true,
	}
	sc.ID = id
	return sc
}

func TestScoreScenario(t *testing.T) {
	rec := &model.DifficultyRecommendation{
		RecommendedDifficulty:   model.Intermediate,
		NextScenarioSuggestions: []string{"dementia_care"},
	}
	profile := &model.PerformanceProfile{
		ChallengeAreas: []string{model.SkillCommunication},
	}

	tests := []struct {
		name     string
		scenario model.Scenario
		want     int
	}{
		{
			"exact difficulty plus high priority",
			catalogScenario(1, "Morning Visit", "Daily Routine", model.Intermediate, model.PriorityHigh),
			70,
		},
		{
			"adjacent tier plus medium priority",
			catalogScenario(2, "Morning Visit", "Daily Routine", model.Beginner, model.PriorityMedium),
			35,
		},
		{
			"challenge keyword in category",
			catalogScenario(3, "Morning Visit", "Communication Basics", model.Intermediate, model.PriorityLow),
			80,
		},
		{
			"suggestion matches title once",
			catalogScenario(4, "Dementia Care Refresher", "Daily Routine", model.Intermediate, model.PriorityLow),
			90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreScenario(tt.scenario, rec, profile); got != tt.want {
				t.Errorf("scoreScenario = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreScenarioAdjacencyIsOneSided(t *testing.T) {
	profile := &model.PerformanceProfile{}

	rec := &model.DifficultyRecommendation{RecommendedDifficulty: model.Beginner}
	sc := catalogScenario(1, "t", "c", model.Advanced, model.PriorityLow)
	if got := scoreScenario(sc, rec, profile); got != 0 {
		t.Errorf("beginner vs advanced scored %d, want 0 (not adjacent)", got)
	}

	rec.RecommendedDifficulty = model.Intermediate
	if got := scoreScenario(sc, rec, profile); got != 25 {
		t.Errorf("intermediate vs advanced scored %d, want 25", got)
	}
}

func TestRecommendScenariosRanking(t *testing.T) {
	catalog := &fakeCatalog{scenarios: []model.Scenario{
		catalogScenario(1, "Beginner Warmup", "General", model.Beginner, model.PriorityLow),
		catalogScenario(2, "Already Done", "General", model.Intermediate, model.PriorityHigh),
		catalogScenario(3, "Best Match", "General", model.Intermediate, model.PriorityHigh),
		catalogScenario(4, "Tie With Three", "General", model.Intermediate, model.PriorityHigh),
	}}
	history := &fakeAttemptHistory{completedIDs: []uint{2}}
	prompt := &fakePrompt{response: `{"recommendedDifficulty":"intermediate","confidence":0.9}`}

	s := newTestService(history, &fakePreferenceStore{}, catalog, prompt)
	got := s.RecommendScenarios(1, 2)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Scenario 2 is completed and filtered; 3 and 4 tie at the top and the
	// stable sort keeps catalog order.
	if got[0].ID != 3 || got[1].ID != 4 {
		t.Errorf("ranking order = [%d %d], want [3 4]", got[0].ID, got[1].ID)
	}
	if got[0].RecommendationScore != 70 {
		t.Errorf("top score = %d, want 70", got[0].RecommendationScore)
	}
}

func TestRecommendScenariosDegradedPaths(t *testing.T) {
	catalog := []model.Scenario{
		catalogScenario(1, "A", "General", model.Beginner, model.PriorityLow),
		catalogScenario(2, "B", "General", model.Beginner, model.PriorityLow),
		catalogScenario(3, "C", "General", model.Beginner, model.PriorityLow),
	}

	t.Run("catalog unavailable", func(t *testing.T) {
		s := newTestService(&fakeAttemptHistory{}, &fakePreferenceStore{},
			&fakeCatalog{err: errors.New("db down")}, &fakePrompt{})
		got := s.RecommendScenarios(1, 5)
		if got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty non-nil slice", got)
		}
	})

	t.Run("completion history unavailable", func(t *testing.T) {
		s := newTestService(&fakeAttemptHistory{completedErr: errors.New("db down")},
			&fakePreferenceStore{}, &fakeCatalog{scenarios: catalog}, &fakePrompt{})
		got := s.RecommendScenarios(1, 2)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].ID != 1 || got[1].ID != 2 {
			t.Errorf("order = [%d %d], want catalog order [1 2]", got[0].ID, got[1].ID)
		}
		if got[0].RecommendationScore != 0 {
			t.Errorf("unranked fallback should not score, got %d", got[0].RecommendationScore)
		}
	})
}

func TestApplyRecommendationConfidenceGate(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		promptErr   error
		wantApplied bool
	}{
		{"high confidence applies", `{"recommendedDifficulty":"advanced","confidence":0.9}`, nil, true},
		{"at threshold does not apply", `{"recommendedDifficulty":"advanced","confidence":0.7}`, nil, false},
		{"below threshold does not apply", `{"recommendedDifficulty":"advanced","confidence":0.4}`, nil, false},
		{"model failure does not apply", "", errors.New("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakePreferenceStore{user: &model.User{}}
			s := newTestService(&fakeAttemptHistory{}, store, &fakeCatalog{},
				&fakePrompt{response: tt.response, err: tt.promptErr})

			s.ApplyRecommendation(1)

			if store.applied != tt.wantApplied {
				t.Errorf("applied = %v, want %v", store.applied, tt.wantApplied)
			}
			if tt.wantApplied && store.difficulty != "advanced" {
				t.Errorf("difficulty = %q, want advanced", store.difficulty)
			}
			if tt.wantApplied && store.snapshot == "" {
				t.Error("snapshot not recorded")
			}
		})
	}
}

func TestApplyRecommendationSwallowsStoreErrors(t *testing.T) {
	store := &fakePreferenceStore{findErr: errors.New("db down")}
	s := newTestService(&fakeAttemptHistory{}, store, &fakeCatalog{},
		&fakePrompt{response: `{"recommendedDifficulty":"advanced","confidence":0.9}`})

	// Must not panic or propagate anything.
	s.ApplyRecommendation(1)

	if store.applied {
		t.Error("apply should not happen when the user read fails")
	}
}
