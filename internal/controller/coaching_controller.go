package controller

import (
	"caretrain_backend/internal/service"
	"caretrain_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CoachingController serves the in-session advisory endpoints. All four are
// degrade-to-empty: the client treats an empty payload as "no advice right
// now" and keeps the roleplay going.
type CoachingController struct {
	Enhancement *service.LearningEnhancementService
	Transcripts *service.TranscriptStore
}

func NewCoachingController(enhancement *service.LearningEnhancementService, transcripts *service.TranscriptStore) *CoachingController {
	return &CoachingController{
		Enhancement: enhancement,
		Transcripts: transcripts,
	}
}

func (c *CoachingController) GenerateHints(ctx *gin.Context) {
	var req service.HintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(req.RecentTurns) == 0 && req.AttemptID != 0 {
		req.RecentTurns = c.Transcripts.Load(req.AttemptID)
	}
	util.Success(ctx, gin.H{"hints": c.Enhancement.GenerateHints(&req)})
}

func (c *CoachingController) AnalyzeConversation(ctx *gin.Context) {
	var req service.AnalysisRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(req.Transcript) == 0 && req.AttemptID != 0 {
		req.Transcript = c.Transcripts.Load(req.AttemptID)
	}
	if len(req.Transcript) == 0 {
		util.BadRequest(ctx, "transcript or attemptId with cached turns required")
		return
	}
	util.Success(ctx, c.Enhancement.AnalyzeConversation(&req))
}

func (c *CoachingController) GenerateAlternatives(ctx *gin.Context) {
	var req service.AlternativesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"alternatives": c.Enhancement.GenerateAlternativeResponses(&req)})
}

func (c *CoachingController) GenerateTips(ctx *gin.Context) {
	var req service.TipsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"tips": c.Enhancement.GenerateCommunicationTips(&req)})
}
