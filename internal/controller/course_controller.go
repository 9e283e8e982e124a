package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// @Summary Create a course
// @Description Idempotent on the course name
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param course body object true "Course name and aliases"
// @Success 201 {object} util.Response
// @Router /courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req struct {
		Name    string   `json:"name" binding:"required,max=191"`
		Color   string   `json:"color" binding:"max=20"`
		Aliases []string `json:"aliases"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, created, err := c.CourseService.Create(req.Name, req.Color, req.Aliases)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if created {
		util.Created(ctx, course)
		return
	}
	util.Success(ctx, course)
}

// @Summary List courses
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.CourseService.List()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, courses)
}

// @Summary Get a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.CourseService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param course body object true "Fields to update"
// @Success 200 {object} util.Response
// @Router /courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Name    string   `json:"name" binding:"max=191"`
		Color   string   `json:"color" binding:"max=20"`
		Aliases []string `json:"aliases"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(id, req.Name, req.Color, req.Aliases)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, course)
}

// @Summary Delete a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response
// @Router /courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.CourseService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": id})
}

// @Summary Assign a course to a session
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param request body object true "Course to assign"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/course [put]
func (c *CourseController) Assign(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		CourseID uint `json:"courseId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	link, err := c.CourseService.Assign(id, req.CourseID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, link)
}

// @Summary Get the course linked to a session
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/course [get]
func (c *CourseController) SessionCourse(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	link, err := c.CourseService.SessionCourse(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, link)
}

// @Summary Suggest a course for a session
// @Description Matches course names and aliases against the transcript
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/course/suggest [post]
func (c *CourseController) Suggest(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	course, term, confidence, err := c.CourseService.Suggest(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if course == nil {
		util.Success(ctx, gin.H{"matched": false})
		return
	}

	util.Success(ctx, gin.H{
		"matched":    true,
		"course":     course,
		"term":       term,
		"confidence": confidence,
	})
}
