package controller

import (
	"noted_backend/internal/service"
	"noted_backend/internal/util"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
	MediaService   *service.MediaService
}

func NewSessionController(sessionService *service.SessionService, mediaService *service.MediaService) *SessionController {
	return &SessionController{SessionService: sessionService, MediaService: mediaService}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// @Summary Start a capture session
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param session body object true "Session title"
// @Success 201 {object} util.Response
// @Router /sessions [post]
func (c *SessionController) Create(ctx *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required,max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Create(req.Title)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// @Summary List sessions
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response
// @Router /sessions [get]
func (c *SessionController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := c.SessionService.List(page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  sessions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary Get a session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.SessionService.Get(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary End a session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/end [post]
func (c *SessionController) End(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.SessionService.End(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id} [delete]
func (c *SessionController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.SessionService.Delete(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": id})
}

// @Summary List transcript chunks
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/chunks [get]
func (c *SessionController) Chunks(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	chunks, err := c.SessionService.Chunks(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, chunks)
}

// @Summary Get the joined transcript
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/transcript [get]
func (c *SessionController) Transcript(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	transcript, err := c.SessionService.Transcript(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"transcript": transcript})
}

// @Summary Ingest transcript chunks
// @Description Webhook endpoint used by the capture device
// @Tags webhooks
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param chunks body object true "Chunk batch"
// @Success 201 {object} util.Response
// @Router /webhook/sessions/{id}/chunks [post]
func (c *SessionController) AddChunks(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Chunks []service.ChunkInput `json:"chunks" binding:"required,min=1,dive"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	chunks, err := c.SessionService.AddChunks(id, req.Chunks)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, chunks)
}

// @Summary Session timeline
// @Description Transcript chunks and uploaded assets, with optional text and bookmark filters
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param q query string false "Substring filter"
// @Param bookmarked query bool false "Only bookmarked chunks"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/timeline [get]
func (c *SessionController) Timeline(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var bookmarked *bool
	if raw, present := ctx.GetQuery("bookmarked"); present {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			util.BadRequest(ctx, "invalid bookmarked value")
			return
		}
		bookmarked = &v
	}

	chunks, err := c.SessionService.Timeline(id, ctx.Query("q"), bookmarked)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	assets, err := c.MediaService.SessionAssets(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"chunks": chunks,
		"assets": assets,
	})
}

// @Summary Bookmark a timestamp range
// @Description Marks every transcript chunk overlapping the range
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param range body object true "Timestamp range in seconds"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/bookmark [post]
func (c *SessionController) Bookmark(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		TsStart float64 `json:"tsStart"`
		TsEnd   float64 `json:"tsEnd"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.TsEnd < req.TsStart {
		util.BadRequest(ctx, "tsEnd must not precede tsStart")
		return
	}

	updated, err := c.SessionService.Bookmark(id, req.TsStart, req.TsEnd)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"bookmarked": updated})
}

// @Summary Upload a session asset
// @Description Stores a photo or slide attached to the session
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param file formData file true "Asset file"
// @Param kind formData string false "Asset kind"
// @Param ts formData number false "Timeline position in seconds"
// @Success 201 {object} util.Response
// @Router /sessions/{id}/assets [post]
func (c *SessionController) UploadAsset(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.SessionService.Get(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}

	var ts *float64
	if raw := ctx.PostForm("ts"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid ts value")
			return
		}
		ts = &v
	}

	tmpPath := filepath.Join(os.TempDir(), filepath.Base(file.Filename))
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	asset, err := c.MediaService.IngestAsset(
		ctx.Request.Context(), id, tmpPath, file.Filename,
		file.Header.Get("Content-Type"), ctx.PostForm("kind"), file.Size, ts,
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, asset)
}

// @Summary List session assets
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Success 200 {object} util.Response
// @Router /sessions/{id}/assets [get]
func (c *SessionController) ListAssets(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.SessionService.Get(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	assets, err := c.MediaService.SessionAssets(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, assets)
}

// @Summary Upload a session recording
// @Description Stores the file, transcodes it and appends the transcript
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Session ID"
// @Param file formData file true "Audio file"
// @Success 201 {object} util.Response
// @Router /sessions/{id}/audio [post]
func (c *SessionController) UploadAudio(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.SessionService.Get(id); err != nil {
		util.RespondError(ctx, err)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}

	tmpPath := filepath.Join(os.TempDir(), filepath.Base(file.Filename))
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	asset, transcript, err := c.MediaService.IngestAudio(
		ctx.Request.Context(), id, tmpPath, file.Filename,
		file.Header.Get("Content-Type"), file.Size,
	)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"asset":      asset,
		"transcript": transcript,
	})
}
