package service

import (
	"bytes"
	"caretrain_backend/internal/config"
	"caretrain_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// AIService talks to an OpenAI-compatible chat-completions endpoint. It is
// the only place that knows about the model vendor; everything else depends
// on the narrow PromptClient interface so the vendor can be swapped or faked.
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// UpdateConfig swaps endpoint/model settings at runtime (config hot reload).
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
}

func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []AIChatMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CompleteJSON submits a prompt expecting a single JSON object back, with a
// bounded token budget and low temperature.
func (s *AIService) CompleteJSON(operation, prompt string, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	raw, err := s.complete(prompt, temperature, maxTokens, &responseFormat{Type: "json_object"})
	monitoring.ObserveAICall(operation, start, err)
	return raw, err
}

// Chat submits a free-form system/user exchange, e.g. persona replies.
func (s *AIService) Chat(system, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	cfg, client := s.snapshot()

	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	raw, err := s.send(cfg, client, chatCompletionRequest{
		Model:     cfg.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	monitoring.ObserveAICall("chat", start, err)
	return raw, err
}

func (s *AIService) complete(prompt string, temperature float64, maxTokens int, format *responseFormat) (string, error) {
	cfg, client := s.snapshot()

	return s.send(cfg, client, chatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: format,
	})
}

func (s *AIService) send(cfg config.AIConfig, client *http.Client, reqBody chatCompletionRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}
