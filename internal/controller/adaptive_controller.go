package controller

import (
	"caretrain_backend/internal/service"
	"caretrain_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AdaptiveController exposes the difficulty recommendation pipeline. The
// underlying service is total, so these handlers never return 5xx.
type AdaptiveController struct {
	AdaptiveService *service.AdaptiveDifficultyService
}

func NewAdaptiveController(adaptiveService *service.AdaptiveDifficultyService) *AdaptiveController {
	return &AdaptiveController{AdaptiveService: adaptiveService}
}

func (c *AdaptiveController) GetRecommendation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	focus := ctx.Query("focus")
	util.Success(ctx, c.AdaptiveService.RecommendDifficulty(claims.UserID, focus))
}

func (c *AdaptiveController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, c.AdaptiveService.ComputeProfile(claims.UserID))
}

func (c *AdaptiveController) GetRecommendedScenarios(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	util.Success(ctx, c.AdaptiveService.RecommendScenarios(claims.UserID, limit))
}

// Apply kicks off the preference update in the background and acknowledges
// immediately. Whether the write actually lands depends on the confidence
// gate inside the service.
func (c *AdaptiveController) Apply(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	go c.AdaptiveService.ApplyRecommendation(claims.UserID)
	util.Accepted(ctx)
}
