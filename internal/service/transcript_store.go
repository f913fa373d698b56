package service

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	transcriptKeyFormat = "attempt:transcript:%d"
	transcriptTTL       = 2 * time.Hour
	transcriptMaxTurns  = 40
)

// TranscriptStore keeps a rolling scratch copy of each attempt's transcript
// in Redis so advisory calls can reference an attempt by id instead of
// re-sending the whole conversation. Best effort throughout: the durable
// record lives in attempt_responses, this is only a convenience cache.
type TranscriptStore struct {
	Redis *redis.Client
}

func NewTranscriptStore(rdb *redis.Client) *TranscriptStore {
	return &TranscriptStore{Redis: rdb}
}

func transcriptKey(attemptID uint) string {
	return fmt.Sprintf(transcriptKeyFormat, attemptID)
}

// Append adds turns to the attempt's scratch transcript, trimming to the
// most recent window.
func (s *TranscriptStore) Append(attemptID uint, turns ...model.ConversationTurn) {
	if s.Redis == nil || len(turns) == 0 {
		return
	}

	current := s.Load(attemptID)
	current = append(current, turns...)
	if len(current) > transcriptMaxTurns {
		current = current[len(current)-transcriptMaxTurns:]
	}

	data, err := json.Marshal(current)
	if err != nil {
		logger.Log.Warn("transcript: marshal failed", zap.Error(err))
		return
	}
	if err := s.Redis.Set(context.Background(), transcriptKey(attemptID), data, transcriptTTL).Err(); err != nil {
		logger.Log.Debug("transcript: cache write failed",
			zap.Uint("attemptID", attemptID), zap.Error(err))
	}
}

// Load returns the cached transcript, or nil when absent or unreadable.
func (s *TranscriptStore) Load(attemptID uint) []model.ConversationTurn {
	if s.Redis == nil {
		return nil
	}

	data, err := s.Redis.Get(context.Background(), transcriptKey(attemptID)).Bytes()
	if err != nil {
		return nil
	}

	var turns []model.ConversationTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		logger.Log.Warn("transcript: corrupt cache entry dropped",
			zap.Uint("attemptID", attemptID), zap.Error(err))
		s.Redis.Del(context.Background(), transcriptKey(attemptID))
		return nil
	}
	return turns
}

func (s *TranscriptStore) Clear(attemptID uint) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), transcriptKey(attemptID))
}
