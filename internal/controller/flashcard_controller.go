package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type FlashcardController struct {
	FlashcardService *service.FlashcardService
}

func NewFlashcardController(flashcardService *service.FlashcardService) *FlashcardController {
	return &FlashcardController{FlashcardService: flashcardService}
}

// @Summary Generate flashcards for a session
// @Tags flashcards
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param options body object false "Generation options"
// @Success 201 {object} util.Response
// @Router /sessions/{id}/flashcards [post]
func (c *FlashcardController) Generate(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Types      []string `json:"types" binding:"omitempty,dive,oneof=qa cloze mc"`
		MaxPerType int      `json:"maxPerType" binding:"omitempty,min=1,max=50"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	set, cards, err := c.FlashcardService.Generate(ctx.Request.Context(), id, req.Types, req.MaxPerType)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"qa":    set.QA,
		"cloze": set.Cloze,
		"mc":    set.MC,
		"cards": cards,
	})
}

// @Summary List flashcards
// @Tags flashcards
// @Produce json
// @Security ApiKeyAuth
// @Param session_id query int false "Filter by session"
// @Param course_id query int false "Filter by course"
// @Param type query string false "Filter by card type"
// @Success 200 {object} util.Response
// @Router /flashcards [get]
func (c *FlashcardController) List(ctx *gin.Context) {
	sessionID, _ := strconv.ParseUint(ctx.Query("session_id"), 10, 32)
	courseID, _ := strconv.ParseUint(ctx.Query("course_id"), 10, 32)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	cards, total, err := c.FlashcardService.List(uint(sessionID), uint(courseID), ctx.Query("type"), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  cards,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get a flashcard
// @Tags flashcards
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Flashcard ID"
// @Success 200 {object} util.Response
// @Router /flashcards/{id} [get]
func (c *FlashcardController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	card, err := c.FlashcardService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, card)
}

// @Summary Delete a flashcard
// @Tags flashcards
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Flashcard ID"
// @Success 200 {object} util.Response
// @Router /flashcards/{id} [delete]
func (c *FlashcardController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.FlashcardService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": id})
}
