package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailtriage/internal/api"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	managedHandler *api.ManagedEmailHandler,
	filteringHandler *api.FilteringHandler,
	triageHandler *api.TriageHandler,
	gmailHandler *api.GmailHandler,
	outboxHandler *api.OutboxHandler, // nil when the outbox is disabled
	mqConnected func() bool,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"mq":     mqConnected(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/emails/managed", managedHandler.List)
		auth.GET("/emails/managed/lookup", managedHandler.GetByAddress)
		auth.POST("/emails/managed", managedHandler.Create)
		auth.POST("/emails/managed/ensure", managedHandler.Ensure)
		auth.PATCH("/emails/managed/:id", managedHandler.Update)
		auth.DELETE("/emails/managed/:id", managedHandler.Delete)
		auth.PUT("/emails/managed/:id/filtering", managedHandler.SetFiltering)
		auth.POST("/emails/managed/:id/filtering/toggle", managedHandler.ToggleFiltering)

		auth.POST("/emails/managed/:id/filtering/run", filteringHandler.Run)
		auth.POST("/emails/managed/:id/status", filteringHandler.RecordStatus)
		auth.GET("/emails/managed/:id/status", filteringHandler.CurrentStatus)
		auth.DELETE("/emails/managed/:id/status", filteringHandler.PurgeHistory)
		auth.GET("/filtering/statuses", filteringHandler.AllCurrentStatuses)

		auth.GET("/emails/managed/:id/triage", triageHandler.Buckets)
		auth.POST("/emails/managed/:id/triage/:candidateId/mute", triageHandler.Mute)
		auth.POST("/emails/managed/:id/triage/:candidateId/unmute", triageHandler.Unmute)
		auth.POST("/emails/managed/:id/triage/:candidateId/friend", triageHandler.AddFriend)
		auth.POST("/emails/managed/:id/triage/:candidateId/unfriend", triageHandler.RemoveFriend)

		auth.GET("/gmail/labels", gmailHandler.Labels)
		auth.GET("/gmail/messages", gmailHandler.Messages)
		auth.GET("/gmail/profile", gmailHandler.Profile)

		if outboxHandler != nil {
			auth.GET("/admin/outbox/failed", outboxHandler.Failed)
			auth.POST("/admin/outbox/:eventId/replay", outboxHandler.Replay)
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
