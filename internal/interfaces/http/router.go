package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duncan1987/askzeninsight-sub000/internal/config"
	"github.com/duncan1987/askzeninsight-sub000/internal/domain/services"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/handlers"
	"github.com/duncan1987/askzeninsight-sub000/internal/interfaces/http/middleware"
)

// RouterDeps bundles everything the HTTP surface needs. main builds one and
// hands it over; tests build smaller ones with fakes.
type RouterDeps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Tokens       services.TokenService
	Chat         *handlers.ChatHandler
	Subscription *handlers.SubscriptionHandler
	Webhook      *handlers.WebhookHandler
	Admin        *handlers.AdminHandler
	Cron         *handlers.CronHandler
	Conversation *handlers.ConversationHandler
	Export       *handlers.ExportHandler
	HealthCheck  func() map[string]string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))
	router.Use(middleware.RequestLogger(deps.Logger))

	router.GET("/health", func(c *gin.Context) {
		resp := gin.H{
			"status":  "healthy",
			"service": "askzeninsight",
			"time":    time.Now().UTC(),
		}
		if deps.HealthCheck != nil {
			checks := deps.HealthCheck()
			resp["checks"] = checks
			for _, v := range checks {
				if v != "ok" {
					resp["status"] = "degraded"
					c.JSON(http.StatusServiceUnavailable, resp)
					return
				}
			}
		}
		c.JSON(http.StatusOK, resp)
	})

	api := router.Group("/api")

	// Public surface. Webhooks authenticate by signature, share cards by
	// unguessable token.
	api.POST("/webhooks/creem", deps.Webhook.Handle)
	api.GET("/share/:token", deps.Conversation.GetShareCard)
	api.GET("/notifications", deps.Conversation.Notifications)

	// Chat and quota checks serve anonymous visitors too.
	open := api.Group("")
	open.Use(middleware.OptionalAuth(deps.Tokens))
	open.POST("/chat", deps.Chat.Stream)
	open.GET("/usage/check", deps.Chat.CheckUsage)
	open.GET("/tier", deps.Chat.Tier)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(deps.Tokens))
	authed.GET("/subscription", deps.Subscription.Get)
	authed.POST("/subscription/cancel", deps.Subscription.Cancel)
	authed.POST("/subscription/change-plan", deps.Subscription.ChangePlan)
	authed.GET("/subscription/portal", deps.Subscription.PortalLink)
	authed.POST("/checkout", deps.Subscription.CreateCheckout)
	authed.POST("/checkout/confirm", deps.Subscription.ConfirmCheckout)

	authed.GET("/conversations", deps.Conversation.List)
	authed.GET("/conversations/:id", deps.Conversation.Get)
	authed.PATCH("/conversations/:id", deps.Conversation.Rename)
	authed.DELETE("/conversations/:id", deps.Conversation.Delete)
	authed.POST("/messages/:messageId/feedback", deps.Conversation.SetFeedback)
	authed.POST("/share", deps.Conversation.CreateShareCard)

	authed.POST("/exports", deps.Export.Create)
	authed.GET("/exports/:id", deps.Export.Get)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdminKey(deps.Config.Admin.Key))
	admin.GET("/refunds", deps.Admin.ListRefundRequests)
	admin.POST("/refunds/review", deps.Admin.ReviewRefund)
	admin.GET("/webhooks", deps.Admin.WebhookDeliveries)

	cron := api.Group("/cron")
	cron.Use(middleware.RequireCronSecret(deps.Config.Cron.Secret))
	cron.POST("/reminders", deps.Cron.SendReminders)

	return router
}
