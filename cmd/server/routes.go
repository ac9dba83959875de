package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"solbol.backend/internal/interfaces/http/handlers"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/pkg/metrics"
)

type routeDeps struct {
	authHandler         *handlers.AuthHandler
	rateHandler         *handlers.RateHandler
	orderHandler        *handlers.OrderHandler
	kycHandler          *handlers.KYCHandler
	notificationHandler *handlers.NotificationHandler
	adminHandler        *handlers.AdminHandler
	realtimeHandler     *handlers.RealtimeHandler
	authMiddleware      gin.HandlerFunc
	profileMiddleware   gin.HandlerFunc
	loginLimit          gin.HandlerFunc
	orderCreateLimit    gin.HandlerFunc
	idempotency         gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine, origins []string) {
	r.Use(middleware.CORSMiddleware(origins))
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	r.GET("/health", h.Health)
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		// Rates (public)
		rates := api.Group("/rates")
		{
			rates.GET("/current", d.rateHandler.Current)
			rates.GET("", d.rateHandler.History)
		}

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", d.authHandler.SignUp)
			auth.POST("/login", d.loginLimit, d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.Refresh)
			auth.POST("/reset-password", d.authHandler.ResetPassword)
			auth.POST("/logout", d.authMiddleware, d.authHandler.Logout)
			auth.GET("/me", d.authMiddleware, d.profileMiddleware, d.authHandler.Me)
			auth.PUT("/me", d.authMiddleware, d.profileMiddleware, d.authHandler.UpdateMe)
		}

		// Client routes (protected)
		protected := api.Group("")
		protected.Use(d.authMiddleware, d.profileMiddleware)
		{
			protected.GET("/kyc/status", d.kycHandler.Status)
			protected.POST("/upload/kyc", d.kycHandler.Upload)

			orders := protected.Group("/orders")
			{
				orders.POST("/create", d.orderCreateLimit, d.idempotency, d.orderHandler.CreateOrder)
				orders.POST("/upload-payment", d.orderHandler.UploadPaymentProof)
				orders.GET("", d.orderHandler.ListOrders)
				orders.GET("/stats", d.orderHandler.Stats)
				orders.GET("/:id", d.orderHandler.GetOrder)
				orders.POST("/:id/cancel", d.orderHandler.CancelOrder)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", d.notificationHandler.List)
				notifications.POST("/read-all", d.notificationHandler.MarkAllRead)
				notifications.POST("/:id/read", d.notificationHandler.MarkRead)
			}

			protected.GET("/realtime/stream", d.realtimeHandler.Stream)
		}

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(d.authMiddleware, d.profileMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/stats", d.adminHandler.Stats)

			admin.GET("/orders", d.orderHandler.AdminListOrders)
			admin.PUT("/orders/:id/status", d.orderHandler.AdminUpdateStatus)

			admin.GET("/rates", d.rateHandler.History)
			admin.POST("/rates", d.rateHandler.Publish)

			admin.GET("/kyc/pending", d.kycHandler.Pending)
			admin.POST("/kyc/approve", d.kycHandler.Approve)
			admin.POST("/kyc/reject", d.kycHandler.Reject)

			admin.GET("/approved-users", d.adminHandler.ApprovedUsers)
			admin.GET("/check-user", d.adminHandler.CheckUser)
			admin.GET("/users/summary", d.adminHandler.UsersSummary)
			admin.GET("/users/:userId", d.adminHandler.GetUser)
			admin.GET("/users/:userId/orders", d.adminHandler.UserOrders)
			admin.PUT("/users/:userId/status", d.adminHandler.SetUserStatus)

			admin.GET("/audit-logs", d.adminHandler.AuditLogs)
		}
	}
}
