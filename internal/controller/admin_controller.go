package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type AdminController struct {
	Users        *service.UserService
	Auth         *service.AuthService
	Certificates *service.CertificateService
}

func NewAdminController(users *service.UserService, auth *service.AuthService, certificates *service.CertificateService) *AdminController {
	return &AdminController{Users: users, Auth: auth, Certificates: certificates}
}

func (c *AdminController) ListUsers(ctx *gin.Context) {
	users, err := c.Users.ListAll()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

func (c *AdminController) ListCertified(ctx *gin.Context) {
	users, err := c.Users.ListCertified()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

type CreateAdminRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// CreateAdmin registers an instructor account. As with learner accounts the
// access ID appears only in this response.
func (c *AdminController) CreateAdmin(ctx *gin.Context) {
	var req CreateAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, accessID, err := c.Auth.Register(req.DisplayName, req.Email, true)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{
		"id":       user.ID,
		"accessId": accessID,
	})
}

// IssueCertificate generates and stores the completion certificate for a
// learner. Issuing twice returns the existing certificate.
func (c *AdminController) IssueCertificate(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	user, err := c.Certificates.Issue(ctx.Request.Context(), uint(id))
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
