package util

import (
	"errors"
	"net/http"
	"noted_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope for all JSON API responses.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse wraps paginated lists.
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// RespondError maps service errors onto HTTP statuses. Provider failures
// surface as gateway errors so callers can tell them apart from our own.
func RespondError(c *gin.Context, err error) {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		code := http.StatusBadGateway
		if pe.Code == ProviderCodeTimeout {
			code = http.StatusGatewayTimeout
		}
		Error(c, code, pe.Error())
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrFlashcardNotFound),
		errors.Is(err, ErrProposalNotFound),
		errors.Is(err, ErrAttemptNotFound),
		errors.Is(err, ErrCalendarEventNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrProposalNotPending),
		errors.Is(err, ErrProposalIncomplete),
		errors.Is(err, ErrNoFlashcards),
		errors.Is(err, ErrAttemptSubmitted),
		errors.Is(err, ErrSessionEnded):
		BadRequest(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
