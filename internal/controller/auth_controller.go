package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
	SyncService *service.SyncService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService, syncService *service.SyncService) *AuthController {
	return &AuthController{
		AuthService: authService,
		UserService: userService,
		SyncService: syncService,
	}
}

type RegisterRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// Register creates a learner account. The access ID in the response is the
// only time the credential is ever shown.
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, accessID, err := c.AuthService.Register(req.DisplayName, req.Email, false)
	if err != nil {
		if errors.Is(err, service.ErrDisplayNameRequired) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"id":          user.ID,
		"displayName": user.DisplayName,
		"accessId":    accessID,
	})
}

type LoginRequest struct {
	AccessID string `json:"accessId" binding:"required"`
}

// Login exchanges an access ID for a session token and reconciles local
// progress with the remote copy.
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, token, err := c.AuthService.Login(req.AccessID)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	doc := c.SyncService.OnLogin(ctx.Request.Context(), user.AccessHash)
	c.UserService.MirrorProgress(user.ID, doc)

	util.Success(ctx, gin.H{
		"token":    token,
		"user":     user,
		"progress": doc,
	})
}

// Logout detaches the session; progress stays available anonymously.
func (c *AuthController) Logout(ctx *gin.Context) {
	c.SyncService.OnLogout(ctx.Request.Context())
	util.Success(ctx, gin.H{"status": "logged_out"})
}

func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.UserService.Profile(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}
