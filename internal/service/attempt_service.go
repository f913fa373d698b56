package service

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/internal/repository"
	"caretrain_backend/internal/util"
	"caretrain_backend/pkg/logger"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AttemptService runs the roleplay itself: it records the care worker's
// messages, generates the persona's replies and attaches per-turn skill
// feedback. The AI parts are best effort; a failed model call never blocks
// the turn from being recorded.
type AttemptService struct {
	AttemptRepo  *repository.AttemptRepository
	ScenarioRepo *repository.ScenarioRepository
	AI           *AIService
	Transcripts  *TranscriptStore
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, scenarioRepo *repository.ScenarioRepository, ai *AIService, transcripts *TranscriptStore) *AttemptService {
	return &AttemptService{
		AttemptRepo:  attemptRepo,
		ScenarioRepo: scenarioRepo,
		AI:           ai,
		Transcripts:  transcripts,
	}
}

const (
	personaReplyTokens = 250
	feedbackTokens     = 300
	fallbackReply      = "I'm sorry, could you say that again?"
)

func (s *AttemptService) Start(userID, scenarioID uint) (*model.ScenarioAttempt, error) {
	scenario, err := s.ScenarioRepo.FindByID(scenarioID)
	if err != nil {
		return nil, util.ErrScenarioNotFound
	}
	if !scenario.IsActive {
		return nil, util.ErrScenarioInactive
	}

	attempt := &model.ScenarioAttempt{
		UserID:     userID,
		ScenarioID: scenarioID,
		Progress:   0,
		StartedAt:  time.Now(),
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// AddResponse records one roleplay turn: the care worker's message, the
// persona's generated reply and the per-skill feedback for the turn.
func (s *AttemptService) AddResponse(userID, attemptID uint, userMessage string) (*model.AttemptResponse, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.CompletedAt != nil {
		return nil, util.ErrAttemptCompleted
	}

	scenario, err := s.ScenarioRepo.FindByID(attempt.ScenarioID)
	if err != nil {
		return nil, util.ErrScenarioNotFound
	}

	count, err := s.AttemptRepo.CountResponses(attemptID)
	if err != nil {
		return nil, err
	}

	response := &model.AttemptResponse{
		AttemptID:    attemptID,
		Turn:         int(count) + 1,
		UserMessage:  userMessage,
		PersonaReply: s.personaReply(scenario, attempt.Responses, userMessage),
		Feedback:     s.turnFeedback(scenario, userMessage),
	}

	if err := s.AttemptRepo.AddResponse(response); err != nil {
		return nil, err
	}

	s.Transcripts.Append(attemptID,
		model.ConversationTurn{Role: "care_worker", Content: userMessage},
		model.ConversationTurn{Role: "persona", Content: response.PersonaReply},
	)

	return response, nil
}

func (s *AttemptService) personaReply(scenario *model.Scenario, history []model.AttemptResponse, userMessage string) string {
	system := fmt.Sprintf(
		"You are %s in a care-worker training roleplay. Stay in character, reply in one or two sentences.\nBackground: %s",
		scenario.PersonaName, scenario.PatientBackground)

	var b strings.Builder
	for _, r := range history {
		fmt.Fprintf(&b, "care worker: %s\n%s: %s\n", r.UserMessage, scenario.PersonaName, r.PersonaReply)
	}
	fmt.Fprintf(&b, "care worker: %s", userMessage)

	reply, err := s.AI.Chat(system, b.String(), personaReplyTokens)
	if err != nil || strings.TrimSpace(reply) == "" {
		logger.Log.Warn("persona reply generation failed", zap.Error(err))
		return fallbackReply
	}
	return strings.TrimSpace(reply)
}

// turnFeedback scores one message on the four skills, 1-5 each. Returns an
// empty feedback record (all scores unset) when the model path fails; the
// aggregator reads unset scores as neutral.
func (s *AttemptService) turnFeedback(scenario *model.Scenario, userMessage string) model.ResponseFeedback {
	var b strings.Builder
	b.WriteString("Rate this single care-worker message, 1-5 per skill.\n")
	fmt.Fprintf(&b, "Scenario: %s (%s)\n", scenario.Title, scenario.ScenarioType)
	fmt.Fprintf(&b, "Message: %q\n\n", userMessage)
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString(`{"empathy":3,"communication":3,"professionalism":3,"problemSolving":3,"comment":"one sentence"}`)

	raw, err := s.AI.CompleteJSON("turn_feedback", b.String(), 0.3, feedbackTokens)
	if err != nil {
		logger.Log.Warn("turn feedback generation failed", zap.Error(err))
		return model.ResponseFeedback{}
	}

	var payload struct {
		Empathy         *int   `json:"empathy"`
		Communication   *int   `json:"communication"`
		Professionalism *int   `json:"professionalism"`
		ProblemSolving  *int   `json:"problemSolving"`
		Comment         string `json:"comment"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		logger.Log.Warn("turn feedback unparsable", zap.Error(err))
		return model.ResponseFeedback{}
	}

	return model.ResponseFeedback{
		Empathy:         clampSkill(payload.Empathy),
		Communication:   clampSkill(payload.Communication),
		Professionalism: clampSkill(payload.Professionalism),
		ProblemSolving:  clampSkill(payload.ProblemSolving),
		Comment:         strings.TrimSpace(payload.Comment),
	}
}

func clampSkill(v *int) *int {
	if v == nil {
		return nil
	}
	c := clampInt(*v, 1, 5)
	return &c
}

func (s *AttemptService) UpdateProgress(userID, attemptID uint, progress int) (*model.ScenarioAttempt, error) {
	if progress < 0 || progress > 100 {
		return nil, util.ErrInvalidProgress
	}

	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.CompletedAt != nil {
		return nil, util.ErrAttemptCompleted
	}

	attempt.Progress = progress
	if err := s.AttemptRepo.Update(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Complete closes the attempt at full progress with its final score and the
// time invested, in minutes.
func (s *AttemptService) Complete(userID, attemptID uint, score, timeSpentMinutes int) (*model.ScenarioAttempt, error) {
	if score < 0 || score > 100 {
		return nil, util.ErrInvalidScore
	}

	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.CompletedAt != nil {
		return nil, util.ErrAttemptCompleted
	}

	now := time.Now()
	attempt.Progress = 100
	attempt.Score = score
	attempt.TimeSpentMinutes = timeSpentMinutes
	attempt.CompletedAt = &now

	if err := s.AttemptRepo.Update(attempt); err != nil {
		return nil, err
	}

	s.Transcripts.Clear(attemptID)

	return attempt, nil
}

func (s *AttemptService) ListForUser(userID uint) ([]model.ScenarioAttempt, error) {
	return s.AttemptRepo.FindByUser(userID)
}
