package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type CompletionController struct {
	Completions *service.CompletionService
}

func NewCompletionController(completions *service.CompletionService) *CompletionController {
	return &CompletionController{Completions: completions}
}

type RecordCompletionRequest struct {
	AccessID          string `json:"uniqueId" binding:"required"`
	DisplayName       string `json:"displayName" binding:"required"`
	CompletionDate    string `json:"completionDate"`
	PhishingSimulator int    `json:"phishingSimulator"`
	PasswordStrength  int    `json:"passwordStrength"`
	SecurityQuiz      int    `json:"securityQuiz"`
	Overall           int    `json:"overall"`
}

// RecordCompletion upserts a training completion with the per-game scores.
func (c *CompletionController) RecordCompletion(ctx *gin.Context) {
	var req RecordCompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rec, err := c.Completions.Record(model.CompletionRecord{
		AccessID:          req.AccessID,
		DisplayName:       req.DisplayName,
		CompletionDate:    req.CompletionDate,
		PhishingSimulator: req.PhishingSimulator,
		PasswordStrength:  req.PasswordStrength,
		SecurityQuiz:      req.SecurityQuiz,
		Overall:           req.Overall,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, rec)
}

// GetCompletion looks up the record for an access ID a learner reports to
// their instructor.
func (c *CompletionController) GetCompletion(ctx *gin.Context) {
	rec, err := c.Completions.ForAccessID(ctx.Param("accessId"))
	if err != nil {
		if errors.Is(err, util.ErrRecordNotFound) {
			util.Error(ctx, http.StatusNotFound, util.ErrRecordNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, rec)
}

// ListCompletions returns every completion record, newest first.
func (c *CompletionController) ListCompletions(ctx *gin.Context) {
	recs, err := c.Completions.ListAll()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, recs)
}
