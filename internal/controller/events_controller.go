package controller

import (
	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/service"
	"cybersafe_backend/internal/util"
)

type EventsController struct {
	Hub *service.EventsHub
}

func NewEventsController(hub *service.EventsHub) *EventsController {
	return &EventsController{Hub: hub}
}

// Connect upgrades to a websocket scoped to the caller's progress key.
// The token arrives as a query parameter since browsers cannot set
// headers on websocket upgrades.
func (c *EventsController) Connect(ctx *gin.Context) {
	key, ok := userKey(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, key)
}
