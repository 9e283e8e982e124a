package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotifyController struct {
	Bus       *service.EventBus
	LiveAudio *service.LiveAudioService
	Sessions  *service.SessionService
}

func NewNotifyController(bus *service.EventBus, liveAudio *service.LiveAudioService, sessions *service.SessionService) *NotifyController {
	return &NotifyController{Bus: bus, LiveAudio: liveAudio, Sessions: sessions}
}

// @Summary Event stream websocket
// @Description Upgrades to a websocket that pushes application events
// @Tags websockets
// @Param token query string true "API token"
// @Router /ws/notify [get]
func (c *NotifyController) Notify(ctx *gin.Context) {
	service.ServeNotify(c.Bus, ctx.Writer, ctx.Request)
}

// @Summary Live audio websocket
// @Description Accepts raw PCM frames and streams transcripts back
// @Tags websockets
// @Param id path int true "Session ID"
// @Param token query string true "API token"
// @Router /ws/sessions/{id}/live-audio [get]
func (c *NotifyController) LiveAudioSocket(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.Sessions.Get(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	c.LiveAudio.ServeLiveAudio(ctx.Writer, ctx.Request, id)
}
