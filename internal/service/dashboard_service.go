package service

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/internal/repository"
)

type DashboardService struct {
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.AttemptRepository
	Adaptive    *AdaptiveDifficultyService
}

func NewDashboardService(userRepo *repository.UserRepository, attemptRepo *repository.AttemptRepository, adaptive *AdaptiveDifficultyService) *DashboardService {
	return &DashboardService{
		UserRepo:    userRepo,
		AttemptRepo: attemptRepo,
		Adaptive:    adaptive,
	}
}

type CareWorkerDashboard struct {
	User           *model.User               `json:"user"`
	Stats          *model.UserStats          `json:"stats"`
	Profile        *model.PerformanceProfile `json:"profile"`
	RecentAttempts []model.ScenarioAttempt   `json:"recentAttempts"`
}

func (s *DashboardService) GetCareWorkerDashboard(userID uint) (*CareWorkerDashboard, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.AttemptRepo.GetUserStats(userID)
	if err != nil {
		stats = &model.UserStats{}
	}

	attempts, err := s.AttemptRepo.FindByUser(userID)
	if err != nil {
		attempts = nil
	}
	if len(attempts) > 5 {
		attempts = attempts[len(attempts)-5:]
	}

	return &CareWorkerDashboard{
		User:           user,
		Stats:          stats,
		Profile:        s.Adaptive.ComputeProfile(userID),
		RecentAttempts: attempts,
	}, nil
}

func (s *DashboardService) GetTeamOverview(page, pageSize int, search string) ([]repository.TeamProgressItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.AttemptRepo.ListTeamProgress(page, pageSize, search)
}
