package controller

import (
	"caretrain_backend/internal/service"
	"caretrain_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
}

func NewAttemptController(attemptService *service.AttemptService) *AttemptController {
	return &AttemptController{AttemptService: attemptService}
}

func attemptError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound), errors.Is(err, util.ErrScenarioNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAttemptCompleted),
		errors.Is(err, util.ErrScenarioInactive),
		errors.Is(err, util.ErrInvalidProgress),
		errors.Is(err, util.ErrInvalidScore):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

type StartAttemptRequest struct {
	ScenarioID uint `json:"scenarioId" binding:"required"`
}

func (c *AttemptController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.Start(claims.UserID, req.ScenarioID)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

type AddResponseRequest struct {
	Message string `json:"message" binding:"required"`
}

func (c *AttemptController) AddResponse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID := util.MustParseUint(ctx.Param("id"))

	var req AddResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	response, err := c.AttemptService.AddResponse(claims.UserID, attemptID, req.Message)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Created(ctx, response)
}

type ProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

func (c *AttemptController) UpdateProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID := util.MustParseUint(ctx.Param("id"))

	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.UpdateProgress(claims.UserID, attemptID, *req.Progress)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

type CompleteRequest struct {
	Score            *int `json:"score" binding:"required"`
	TimeSpentMinutes int  `json:"timeSpentMinutes"`
}

func (c *AttemptController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID := util.MustParseUint(ctx.Param("id"))

	var req CompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.AttemptService.Complete(claims.UserID, attemptID, *req.Score, req.TimeSpentMinutes)
	if err != nil {
		attemptError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

func (c *AttemptController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.AttemptService.ListForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}
