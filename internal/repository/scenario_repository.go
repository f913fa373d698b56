package repository

import (
	"caretrain_backend/internal/model"

	"gorm.io/gorm"
)

type ScenarioRepository struct {
	DB *gorm.DB
}

func NewScenarioRepository(db *gorm.DB) *ScenarioRepository {
	return &ScenarioRepository{DB: db}
}

func (r *ScenarioRepository) Create(scenario *model.Scenario) error {
	return r.DB.Create(scenario).Error
}

func (r *ScenarioRepository) Update(scenario *model.Scenario) error {
	return r.DB.Save(scenario).Error
}

func (r *ScenarioRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Scenario{}, id).Error
}

func (r *ScenarioRepository) FindByID(id uint) (*model.Scenario, error) {
	var scenario model.Scenario
	err := r.DB.First(&scenario, id).Error
	return &scenario, err
}

// ListActive returns the rankable catalog in stable id order.
func (r *ScenarioRepository) ListActive() ([]model.Scenario, error) {
	var scenarios []model.Scenario
	err := r.DB.Where("is_active = ?", true).Order("id ASC").Find(&scenarios).Error
	return scenarios, err
}

func (r *ScenarioRepository) List(page, pageSize int, includeInactive bool) ([]model.Scenario, int64, error) {
	var scenarios []model.Scenario
	var total int64

	query := r.DB.Model(&model.Scenario{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&scenarios).Error
	return scenarios, total, err
}
