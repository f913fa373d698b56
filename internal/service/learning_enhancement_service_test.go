package service

import (
	"caretrain_backend/internal/model"
	"errors"
	"testing"
)

func TestGenerateHints(t *testing.T) {
	req := &HintRequest{LatestMessage: "Calm down, it's fine."}

	t.Run("model failure yields no hints", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{err: errors.New("timeout")})
		if got := s.GenerateHints(req); got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty non-nil slice", got)
		}
	})

	t.Run("unparsable output yields no hints", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{response: "try being nicer"})
		if got := s.GenerateHints(req); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("caps at two and defaults bad enums", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{response: `{"hints":[
			{"text":"Name the feeling you heard.","category":"empathy","timing":"immediate","priority":"high"},
			{"text":"","category":"empathy"},
			{"text":"Slow your pace.","category":"vibes","timing":"whenever","priority":"urgent"},
			{"text":"A third hint.","category":"communication"}
		]}`})

		got := s.GenerateHints(req)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Category != model.SkillEmpathy || got[0].Timing != "immediate" || got[0].Priority != "high" {
			t.Errorf("first hint = %+v", got[0])
		}
		if got[1].Category != model.SkillCommunication {
			t.Errorf("invalid category should default to communication, got %q", got[1].Category)
		}
		if got[1].Timing != "next_response" || got[1].Priority != "medium" {
			t.Errorf("invalid enums should default, got %+v", got[1])
		}
	})
}

func TestAnalyzeConversation(t *testing.T) {
	req := &AnalysisRequest{Transcript: []model.ConversationTurn{
		{Role: "care_worker", Content: "Good morning."},
	}}

	t.Run("model failure yields neutral analysis", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{err: errors.New("timeout")})
		got := s.AnalyzeConversation(req)

		if got.ToneTrend != model.TrendStable {
			t.Errorf("ToneTrend = %v, want stable", got.ToneTrend)
		}
		if got.EngagementLevel != 5 {
			t.Errorf("EngagementLevel = %d, want 5", got.EngagementLevel)
		}
		if got.MissedOpportunities == nil || got.StrongMoments == nil {
			t.Error("list fields must be non-nil")
		}
		if got.EmotionalState != "calm" {
			t.Errorf("EmotionalState = %q, want calm", got.EmotionalState)
		}
	})

	t.Run("clamps and normalizes model output", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{response: `{
			"toneTrend":"plummeting",
			"engagementLevel":42,
			"strongMoments":["opened with the person's name"],
			"emotionalState":"AGITATED"
		}`})
		got := s.AnalyzeConversation(req)

		if got.ToneTrend != model.TrendStable {
			t.Errorf("unknown tone should fall back to stable, got %v", got.ToneTrend)
		}
		if got.EngagementLevel != 10 {
			t.Errorf("EngagementLevel = %d, want clamped to 10", got.EngagementLevel)
		}
		if len(got.StrongMoments) != 1 {
			t.Errorf("StrongMoments = %v", got.StrongMoments)
		}
		if got.EmotionalState != "agitated" {
			t.Errorf("EmotionalState = %q, want lowercased", got.EmotionalState)
		}
	})
}

func TestGenerateAlternativeResponses(t *testing.T) {
	req := &AlternativesRequest{LatestMessage: "You have to take your tablets now."}

	t.Run("model failure yields no alternatives", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{err: errors.New("timeout")})
		if got := s.GenerateAlternativeResponses(req); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("always returns the three fixed categories", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{response: `{"alternatives":[
			{"category":"professional","text":"Shall we go through your medication together?","explanation":"Invites rather than orders."},
			{"category":"professional","text":"a duplicate that must be ignored"},
			{"category":"freestyle","text":"ignored category"}
		]}`})

		got := s.GenerateAlternativeResponses(req)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		wantOrder := []string{"empathetic", "professional", "problem_solving"}
		for i, cat := range wantOrder {
			if got[i].Category != cat {
				t.Errorf("got[%d].Category = %q, want %q", i, got[i].Category, cat)
			}
			if got[i].Text == "" {
				t.Errorf("got[%d].Text empty", i)
			}
		}
		if got[1].Explanation != "Invites rather than orders." {
			t.Errorf("model-provided alternative lost: %+v", got[1])
		}
		// The two missing categories come from fallbacks, which carry no
		// explanation.
		if got[0].Explanation != "" || got[2].Explanation != "" {
			t.Errorf("fallback alternatives should have no explanation: %+v", got)
		}
	})
}

func TestGenerateCommunicationTips(t *testing.T) {
	req := &TipsRequest{ScenarioType: "dementia_care"}

	t.Run("model failure yields no tips", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{err: errors.New("timeout")})
		if got := s.GenerateCommunicationTips(req); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("caps at four and drops blanks", func(t *testing.T) {
		s := NewLearningEnhancementService(&fakePrompt{response: `{"tips":["one","","two","three","four","five"]}`})
		got := s.GenerateCommunicationTips(req)
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		if got[0] != "one" || got[3] != "four" {
			t.Errorf("tips = %v", got)
		}
	})
}

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Value string `json:"value"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"value":"x"}`, "x", false},
		{"fenced object", "```json\n{\"value\":\"x\"}\n```", "x", false},
		{"leading prose", `Sure! Here you go: {"value":"x"} Hope that helps.`, "x", false},
		{"no object at all", "just some text", "", true},
		{"unbalanced braces", "{oops", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := decodeModelJSON(tt.raw, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if p.Value != tt.want {
				t.Errorf("Value = %q, want %q", p.Value, tt.want)
			}
		})
	}
}
