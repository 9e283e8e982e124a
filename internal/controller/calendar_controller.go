package controller

import (
	"io"
	"net/http"
	"noted_backend/internal/service"
	"noted_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CalendarController struct {
	EmailService    *service.EmailService
	CalendarService *service.CalendarService
}

func NewCalendarController(emailService *service.EmailService, calendarService *service.CalendarService) *CalendarController {
	return &CalendarController{EmailService: emailService, CalendarService: calendarService}
}

// @Summary Inbound email webhook
// @Description Accepts a raw RFC822 email and files a calendar proposal.
// @Description The body must be signed with HMAC-SHA256 when a secret is set.
// @Tags webhooks
// @Accept plain
// @Produce json
// @Param X-Agentmail-Signature header string false "Hex HMAC-SHA256 of the body"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} util.Response
// @Router /email/inbound [post]
func (c *CalendarController) EmailInbound(ctx *gin.Context) {
	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		util.BadRequest(ctx, "unreadable body")
		return
	}

	signature := ctx.GetHeader("X-Agentmail-Signature")
	if err := c.EmailService.VerifySignature(raw, signature); err != nil {
		util.Error(ctx, http.StatusUnauthorized, "Invalid signature")
		return
	}

	proposal, duplicate, err := c.EmailService.ProcessInbound(ctx.Request.Context(), raw)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if duplicate {
		ctx.JSON(http.StatusOK, gin.H{"status": "duplicate", "proposal_id": proposal.ID})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "proposal_id": proposal.ID})
}

// @Summary List calendar proposals
// @Tags calendar
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Proposal status" default(pending)
// @Success 200 {object} util.Response
// @Router /proposals [get]
func (c *CalendarController) Proposals(ctx *gin.Context) {
	proposals, err := c.CalendarService.Proposals(ctx.DefaultQuery("status", "pending"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, proposals)
}

// @Summary Confirm a proposal
// @Tags calendar
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Proposal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /proposals/{id}/confirm [post]
func (c *CalendarController) Confirm(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.CalendarService.Confirm(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "event_id": event.ID})
}

// @Summary Reject a proposal
// @Tags calendar
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Proposal ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} util.Response
// @Router /proposals/{id}/reject [post]
func (c *CalendarController) Reject(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CalendarService.Reject(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success"})
}

// @Summary List calendar events
// @Tags calendar
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /calendar/events [get]
func (c *CalendarController) Events(ctx *gin.Context) {
	events, err := c.CalendarService.Events()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, events)
}

// @Summary Delete a calendar event
// @Tags calendar
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 200 {object} util.Response
// @Router /calendar/events/{id} [delete]
func (c *CalendarController) DeleteEvent(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CalendarService.DeleteEvent(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": id})
}

// @Summary ICS calendar feed
// @Description Served without auth so calendar clients can subscribe
// @Tags calendar
// @Produce plain
// @Success 200 {string} string
// @Router /calendar/feed.ics [get]
func (c *CalendarController) FeedICS(ctx *gin.Context) {
	feed, err := c.CalendarService.FeedICS()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
