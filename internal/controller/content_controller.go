package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type ContentController struct {
	Catalogue *service.CatalogueService
}

func NewContentController(catalogue *service.CatalogueService) *ContentController {
	return &ContentController{Catalogue: catalogue}
}

// ListModules returns the training modules in display order.
func (c *ContentController) ListModules(ctx *gin.Context) {
	util.Success(ctx, c.Catalogue.AllModules())
}

func (c *ContentController) GetModule(ctx *gin.Context) {
	mod, ok := c.Catalogue.Module(ctx.Param("id"))
	if !ok {
		util.Error(ctx, http.StatusNotFound, util.ErrModuleNotFound.Error())
		return
	}
	util.Success(ctx, mod)
}

func (c *ContentController) ListBadges(ctx *gin.Context) {
	util.Success(ctx, c.Catalogue.AllBadges())
}
