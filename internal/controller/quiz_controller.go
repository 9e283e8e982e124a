package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary Start a quiz attempt
// @Description Samples questions from the session's flashcards and snapshots
// @Description them into a new attempt
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param options body object false "Quiz options"
// @Success 201 {object} util.Response
// @Router /sessions/{id}/quiz/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Count int `json:"count" binding:"omitempty,min=1,max=50"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	attempt, questions, err := c.QuizService.Start(id, req.Count)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"attemptId": attempt.ID,
		"questions": questions,
	})
}

// @Summary Submit quiz answers
// @Description Grades the attempt against its question snapshot; a second
// @Description submission is rejected
// @Tags quiz
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Attempt ID"
// @Param request body object true "Answers keyed by flashcard id"
// @Success 200 {object} util.Response
// @Router /quiz/attempts/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Answers map[string]string `json:"answers" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, graded, err := c.QuizService.Submit(id, req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"score":   attempt.Score,
		"correct": attempt.NumCorrect,
		"total":   attempt.NumQuestions,
		"answers": graded,
	})
}

// @Summary List quiz attempts for a session
// @Tags quiz
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/quiz/attempts [get]
func (c *QuizController) Attempts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	attempts, err := c.QuizService.Attempts(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}
