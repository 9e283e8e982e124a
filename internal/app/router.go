package app

import (
	"noted_backend/docs"
	"noted_backend/internal/config"
	"noted_backend/internal/middleware"
	"noted_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	router.GET("/health", c.health.HealthCheck)
	router.GET("/calendar/feed.ics", c.calendar.FeedICS)

	// Webhooks carry their own credentials
	router.POST("/email/inbound", c.calendar.EmailInbound)
	webhook := router.Group("/webhook")
	webhook.Use(middleware.WebhookAuth(cfg.Auth.WebhookToken))
	{
		webhook.POST("/sessions/:id/chunks", c.session.AddChunks)
	}

	// Websockets authenticate with ?token= because browsers cannot set
	// headers on upgrade requests
	ws := router.Group("/ws")
	ws.Use(middleware.QueryTokenAuth(cfg.Auth.BearerToken))
	{
		ws.GET("/notify", c.notify.Notify)
		ws.GET("/sessions/:id/live-audio", c.notify.LiveAudioSocket)
	}

	// Bearer-authenticated API
	api := router.Group("/")
	api.Use(middleware.AuthMiddleware(cfg.Auth.BearerToken))
	{
		api.POST("/sessions", c.session.Create)
		api.GET("/sessions", c.session.List)
		api.GET("/sessions/:id", c.session.Get)
		api.DELETE("/sessions/:id", c.session.Delete)
		api.POST("/sessions/:id/end", c.session.End)
		api.GET("/sessions/:id/chunks", c.session.Chunks)
		api.GET("/sessions/:id/transcript", c.session.Transcript)
		api.GET("/sessions/:id/timeline", c.session.Timeline)
		api.POST("/sessions/:id/bookmark", c.session.Bookmark)
		api.POST("/sessions/:id/audio", c.session.UploadAudio)
		api.POST("/sessions/:id/assets", c.session.UploadAsset)
		api.GET("/sessions/:id/assets", c.session.ListAssets)

		api.POST("/sessions/:id/flashcards", c.flashcard.Generate)
		api.GET("/flashcards", c.flashcard.List)
		api.GET("/flashcards/:id", c.flashcard.Get)
		api.DELETE("/flashcards/:id", c.flashcard.Delete)

		api.POST("/sessions/:id/summary", c.study.Summarize)
		api.POST("/sessions/:id/explain", c.study.Explain)

		api.POST("/sessions/:id/quiz/start", c.quiz.Start)
		api.GET("/sessions/:id/quiz/attempts", c.quiz.Attempts)
		api.POST("/quiz/attempts/:id/submit", c.quiz.Submit)

		api.POST("/courses", c.course.Create)
		api.GET("/courses", c.course.List)
		api.GET("/courses/:id", c.course.Get)
		api.PUT("/courses/:id", c.course.Update)
		api.DELETE("/courses/:id", c.course.Delete)
		api.PUT("/sessions/:id/course", c.course.Assign)
		api.GET("/sessions/:id/course", c.course.SessionCourse)
		api.POST("/sessions/:id/course/suggest", c.course.Suggest)

		api.GET("/proposals", c.calendar.Proposals)
		api.POST("/proposals/:id/confirm", c.calendar.Confirm)
		api.POST("/proposals/:id/reject", c.calendar.Reject)
		api.GET("/calendar/events", c.calendar.Events)
		api.DELETE("/calendar/events/:id", c.calendar.DeleteEvent)
	}
}
