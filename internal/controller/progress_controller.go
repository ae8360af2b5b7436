package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type ProgressController struct {
	Progress *service.ProgressService
	Users    *service.UserService
}

func NewProgressController(progress *service.ProgressService, users *service.UserService) *ProgressController {
	return &ProgressController{Progress: progress, Users: users}
}

// userKey resolves the progress key of the signed-in learner.
func userKey(ctx *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return "", false
	}
	return service.HashAccessID(claims.AccessID), true
}

// GetDocument serves the stored document for a key. This is also the
// endpoint a peer instance's sync coordinator fetches from.
func (c *ProgressController) GetDocument(ctx *gin.Context) {
	key := ctx.Param("userId")
	if key == "" {
		util.BadRequest(ctx, "missing user id")
		return
	}
	doc := c.Progress.Current(ctx.Request.Context(), key)
	ctx.JSON(http.StatusOK, doc)
}

// PutDocument replaces the stored document for a key. The body goes through
// the tolerant validator, so malformed input degrades instead of erroring.
func (c *ProgressController) PutDocument(ctx *gin.Context) {
	key := ctx.Param("userId")
	if key == "" {
		util.BadRequest(ctx, "missing user id")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		util.BadRequest(ctx, "unreadable body")
		return
	}
	if !json.Valid(raw) {
		util.BadRequest(ctx, "body is not JSON")
		return
	}

	doc := c.Progress.ReplaceDocument(ctx.Request.Context(), key, model.ValidateProgress(raw))
	c.Users.MirrorProgressByKey(key, doc)
	ctx.JSON(http.StatusOK, doc)
}

// ResetDocument wipes the stored document for a key.
func (c *ProgressController) ResetDocument(ctx *gin.Context) {
	key := ctx.Param("userId")
	if key == "" {
		util.BadRequest(ctx, "missing user id")
		return
	}
	doc := c.Progress.FullReset(ctx.Request.Context(), key)
	c.Users.MirrorProgressByKey(key, doc)
	ctx.JSON(http.StatusOK, doc)
}

// GetMine returns the signed-in learner's document.
func (c *ProgressController) GetMine(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, c.Progress.Current(ctx.Request.Context(), key))
}

type SlideRequest struct {
	ModuleID string `json:"moduleId" binding:"required"`
	SlideID  string `json:"slideId" binding:"required"`
}

func (c *ProgressController) SlideViewed(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req SlideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc := c.Progress.MarkSlideViewed(ctx.Request.Context(), key, req.ModuleID, req.SlideID)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

type QuizRequest struct {
	ModuleID string `json:"moduleId" binding:"required"`
	QuizID   string `json:"quizId" binding:"required"`
	Points   int    `json:"points"`
}

func (c *ProgressController) QuizResult(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc := c.Progress.MarkQuizResult(ctx.Request.Context(), key, req.ModuleID, req.QuizID, req.Points)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

type ChallengeRequest struct {
	ModuleID    string `json:"moduleId" binding:"required"`
	ChallengeID string `json:"challengeId" binding:"required"`
}

func (c *ProgressController) ChallengeDone(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req ChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc := c.Progress.MarkChallengeDone(ctx.Request.Context(), key, req.ModuleID, req.ChallengeID)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

type CompleteModuleRequest struct {
	ModuleID string `json:"moduleId" binding:"required"`
}

// CompleteModule marks a module done once its quizzes and challenges are
// all attempted, and awards the module badge.
func (c *ProgressController) CompleteModule(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req CompleteModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	current := c.Progress.Current(ctx.Request.Context(), key)
	if !c.Progress.CanCompleteModule(current, req.ModuleID) {
		util.Error(ctx, http.StatusConflict, "module requirements not met")
		return
	}

	doc := c.Progress.MarkModuleCompleted(ctx.Request.Context(), key, req.ModuleID)
	if badge, ok := c.Progress.Catalogue.BadgeForModule(req.ModuleID); ok {
		doc = c.Progress.AwardBadge(ctx.Request.Context(), key, badge.ID)
	}
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

type PointsRequest struct {
	Points int `json:"points" binding:"required"`
}

func (c *ProgressController) AddPoints(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req PointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc := c.Progress.AddPoints(ctx.Request.Context(), key, req.Points)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

type BadgeRequest struct {
	BadgeID string `json:"badgeId" binding:"required"`
}

func (c *ProgressController) AwardBadge(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	var req BadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	doc := c.Progress.AwardBadge(ctx.Request.Context(), key, req.BadgeID)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

// ResetMine wipes the signed-in learner's progress.
func (c *ProgressController) ResetMine(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	doc := c.Progress.FullReset(ctx.Request.Context(), key)
	c.mirror(ctx, doc)
	util.Success(ctx, doc)
}

func (c *ProgressController) mirror(ctx *gin.Context, doc model.ProgressDocument) {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		c.Users.MirrorProgress(claims.UserID, doc)
	}
}
