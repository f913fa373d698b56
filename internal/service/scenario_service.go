package service

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/internal/repository"
	"caretrain_backend/internal/util"
)

type ScenarioService struct {
	ScenarioRepo *repository.ScenarioRepository
}

func NewScenarioService(scenarioRepo *repository.ScenarioRepository) *ScenarioService {
	return &ScenarioService{ScenarioRepo: scenarioRepo}
}

func (s *ScenarioService) ListActive() ([]model.Scenario, error) {
	return s.ScenarioRepo.ListActive()
}

func (s *ScenarioService) List(page, pageSize int, includeInactive bool) ([]model.Scenario, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.ScenarioRepo.List(page, pageSize, includeInactive)
}

func (s *ScenarioService) GetByID(id uint) (*model.Scenario, error) {
	return s.ScenarioRepo.FindByID(id)
}

func (s *ScenarioService) Create(scenario *model.Scenario) error {
	if !validDifficulty(scenario.Difficulty) {
		return util.ErrInvalidDifficulty
	}
	if scenario.Priority == "" {
		scenario.Priority = model.PriorityMedium
	}
	return s.ScenarioRepo.Create(scenario)
}

// ScenarioUpdate is a partial update; empty fields keep their current value
// and IsActive only changes when explicitly sent.
type ScenarioUpdate struct {
	Title             string           `json:"title"`
	Category          string           `json:"category"`
	ScenarioType      string           `json:"scenarioType"`
	Difficulty        model.Difficulty `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	Priority          model.Priority   `json:"priority" binding:"omitempty,oneof=high medium low"`
	Description       string           `json:"description"`
	PersonaName       string           `json:"personaName"`
	PatientBackground string           `json:"patientBackground"`
	EstimatedMinutes  int              `json:"estimatedMinutes"`
	IsActive          *bool            `json:"isActive"`
}

func (s *ScenarioService) Update(id uint, updates *ScenarioUpdate) (*model.Scenario, error) {
	existing, err := s.ScenarioRepo.FindByID(id)
	if err != nil {
		return nil, util.ErrScenarioNotFound
	}

	if updates.Title != "" {
		existing.Title = updates.Title
	}
	if updates.Category != "" {
		existing.Category = updates.Category
	}
	if updates.ScenarioType != "" {
		existing.ScenarioType = updates.ScenarioType
	}
	if updates.Difficulty != "" {
		if !validDifficulty(updates.Difficulty) {
			return nil, util.ErrInvalidDifficulty
		}
		existing.Difficulty = updates.Difficulty
	}
	if updates.Priority != "" {
		existing.Priority = updates.Priority
	}
	if updates.Description != "" {
		existing.Description = updates.Description
	}
	if updates.PersonaName != "" {
		existing.PersonaName = updates.PersonaName
	}
	if updates.PatientBackground != "" {
		existing.PatientBackground = updates.PatientBackground
	}
	if updates.EstimatedMinutes > 0 {
		existing.EstimatedMinutes = updates.EstimatedMinutes
	}
	if updates.IsActive != nil {
		existing.IsActive = *updates.IsActive
	}

	if err := s.ScenarioRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ScenarioService) Delete(id uint) error {
	if _, err := s.ScenarioRepo.FindByID(id); err != nil {
		return util.ErrScenarioNotFound
	}
	return s.ScenarioRepo.Delete(id)
}

func validDifficulty(d model.Difficulty) bool {
	switch d {
	case model.Beginner, model.Intermediate, model.Advanced:
		return true
	}
	return false
}
