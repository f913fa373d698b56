package repository

import (
	"caretrain_backend/internal/model"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.ScenarioAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Update(attempt *model.ScenarioAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.ScenarioAttempt, error) {
	var attempt model.ScenarioAttempt
	err := r.DB.Preload("Responses", func(db *gorm.DB) *gorm.DB {
		return db.Order("turn ASC")
	}).First(&attempt, id).Error
	return &attempt, err
}

// FindByUser returns the full attempt history in chronological order, with
// response feedback preloaded for skill aggregation.
func (r *AttemptRepository) FindByUser(userID uint) ([]model.ScenarioAttempt, error) {
	var attempts []model.ScenarioAttempt
	err := r.DB.Preload("Responses", func(db *gorm.DB) *gorm.DB {
		return db.Order("turn ASC")
	}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) AddResponse(response *model.AttemptResponse) error {
	return r.DB.Create(response).Error
}

func (r *AttemptRepository) CountResponses(attemptID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.AttemptResponse{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

// CompletedScenarioIDs lists scenarios the user has fully finished at least once.
func (r *AttemptRepository) CompletedScenarioIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ScenarioAttempt{}).
		Distinct("scenario_id").
		Where("user_id = ? AND progress = 100", userID).
		Pluck("scenario_id", &ids).Error
	return ids, err
}

// GetUserStats aggregates attempt counts, time invested and the weekly streak.
func (r *AttemptRepository) GetUserStats(userID uint) (*model.UserStats, error) {
	stats := &model.UserStats{}

	var total int64
	if err := r.DB.Model(&model.ScenarioAttempt{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalAttempts = int(total)

	type completedAgg struct {
		Count     int
		TotalTime int
	}
	var agg completedAgg
	if err := r.DB.Model(&model.ScenarioAttempt{}).
		Select("COUNT(*) as count, COALESCE(SUM(time_spent_minutes),0) as total_time").
		Where("user_id = ? AND progress = 100", userID).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	stats.CompletedScenarios = agg.Count
	stats.TotalTimeMinutes = agg.TotalTime

	var completedAt []time.Time
	if err := r.DB.Model(&model.ScenarioAttempt{}).
		Where("user_id = ? AND progress = 100 AND completed_at IS NOT NULL", userID).
		Order("completed_at DESC").
		Pluck("completed_at", &completedAt).Error; err != nil {
		return nil, err
	}
	stats.WeeklyStreak = weeklyStreak(completedAt, time.Now())

	return stats, nil
}

// weeklyStreak counts consecutive ISO weeks with at least one completion,
// walking back from the current week. Timestamps must be sorted descending.
func weeklyStreak(completions []time.Time, now time.Time) int {
	weeks := make(map[string]bool, len(completions))
	for _, t := range completions {
		y, w := t.ISOWeek()
		weeks[weekKey(y, w)] = true
	}

	streak := 0
	cursor := now
	for {
		y, w := cursor.ISOWeek()
		if !weeks[weekKey(y, w)] {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}

func weekKey(year, week int) string {
	return fmt.Sprintf("%d-%02d", year, week)
}

// TeamProgressItem is one row of the manager dashboard.
type TeamProgressItem struct {
	UserID             uint      `json:"userId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Team               string    `json:"team"`
	CompletedScenarios int       `json:"completedScenarios"`
	AverageScore       float64   `json:"averageScore"`
	TotalTimeMinutes   int       `json:"totalTimeMinutes"`
	LastActive         time.Time `json:"lastActive"`
}

// ListTeamProgress aggregates per-worker completion and score figures for the
// recruiter / L&D overview.
func (r *AttemptRepository) ListTeamProgress(page, pageSize int, search string) ([]TeamProgressItem, int64, error) {
	base := r.DB.Table("users").
		Where("users.role = ? AND users.deleted_at IS NULL", model.CareWorker)
	if search != "" {
		base = base.Where("users.name LIKE ? OR users.email LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []TeamProgressItem
	err := base.
		Select(`users.id as user_id, users.name, users.email, users.team, users.last_seen as last_active,
			COALESCE(SUM(CASE WHEN sa.progress = 100 THEN 1 ELSE 0 END), 0) as completed_scenarios,
			COALESCE(AVG(CASE WHEN sa.progress = 100 AND sa.score > 0 THEN sa.score END), 0) as average_score,
			COALESCE(SUM(CASE WHEN sa.progress = 100 THEN sa.time_spent_minutes ELSE 0 END), 0) as total_time_minutes`).
		Joins("LEFT JOIN scenario_attempts sa ON sa.user_id = users.id AND sa.deleted_at IS NULL").
		Group("users.id, users.name, users.email, users.team, users.last_seen").
		Order("users.id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&items).Error

	return items, total, err
}
