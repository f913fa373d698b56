package controller

import (
	"caretrain_backend/internal/model"
	"caretrain_backend/internal/service"
	"caretrain_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ScenarioController struct {
	ScenarioService *service.ScenarioService
}

func NewScenarioController(scenarioService *service.ScenarioService) *ScenarioController {
	return &ScenarioController{ScenarioService: scenarioService}
}

// ListActive returns the catalog a care worker can practice against.
func (c *ScenarioController) ListActive(ctx *gin.Context) {
	scenarios, err := c.ScenarioService.ListActive()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, scenarios)
}

func (c *ScenarioController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	scenario, err := c.ScenarioService.GetByID(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, scenario)
}

// List is the management view and includes inactive scenarios.
func (c *ScenarioController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	scenarios, total, err := c.ScenarioService.List(page, pageSize, true)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  scenarios,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}

type ScenarioRequest struct {
	Title             string `json:"title" binding:"required"`
	Category          string `json:"category" binding:"required"`
	ScenarioType      string `json:"scenarioType" binding:"required"`
	Difficulty        string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	Priority          string `json:"priority" binding:"omitempty,oneof=high medium low"`
	Description       string `json:"description"`
	PersonaName       string `json:"personaName" binding:"required"`
	PatientBackground string `json:"patientBackground" binding:"required"`
	EstimatedMinutes  int    `json:"estimatedMinutes"`
	IsActive          bool   `json:"isActive"`
}

func (r *ScenarioRequest) toModel() *model.Scenario {
	return &model.Scenario{
		Title:             r.Title,
		Category:          r.Category,
		ScenarioType:      r.ScenarioType,
		Difficulty:        model.Difficulty(r.Difficulty),
		Priority:          model.Priority(r.Priority),
		Description:       r.Description,
		PersonaName:       r.PersonaName,
		PatientBackground: r.PatientBackground,
		EstimatedMinutes:  r.EstimatedMinutes,
		IsActive:          r.IsActive,
	}
}

func (c *ScenarioController) Create(ctx *gin.Context) {
	var req ScenarioRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	scenario := req.toModel()
	if err := c.ScenarioService.Create(scenario); err != nil {
		if errors.Is(err, util.ErrInvalidDifficulty) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, scenario)
}

func (c *ScenarioController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.ScenarioUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	scenario, err := c.ScenarioService.Update(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrScenarioNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidDifficulty):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, scenario)
}

func (c *ScenarioController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.ScenarioService.Delete(id); err != nil {
		if errors.Is(err, util.ErrScenarioNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
