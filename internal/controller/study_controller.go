package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyController struct {
	StudyService *service.StudyService
}

func NewStudyController(studyService *service.StudyService) *StudyController {
	return &StudyController{StudyService: studyService}
}

// @Summary Summarize a session
// @Tags study
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/summary [post]
func (c *StudyController) Summarize(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	summary, err := c.StudyService.Summarize(ctx.Request.Context(), id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"summary": summary})
}

// @Summary Explain a concept from a session
// @Tags study
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param request body object true "Concept to explain"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/explain [post]
func (c *StudyController) Explain(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Concept string `json:"concept" binding:"required"`
		Mode    string `json:"mode" binding:"omitempty,oneof=eli5 technical analogy"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = service.ExplainModeTechnical
	}

	explanation, err := c.StudyService.Explain(ctx.Request.Context(), id, req.Concept, req.Mode)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"explanation": explanation, "mode": req.Mode})
}
