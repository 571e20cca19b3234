package routes

import (
	"daurulang-backend/internal/handlers"
	"daurulang-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {

	r.Use(middleware.CORSMiddleware())
	// Limit global sengaja longgar karena kolektor aktif kirim posisi
	// tiap beberapa detik; route auth di bawah pakai limit ketat sendiri
	r.Use(middleware.RateLimitMiddleware(20, 40))

	// Grouping API dengan Versi (v1)
	api := r.Group("/api/v1")
	{
		// Grouping Auth (limit ketat biar tidak bisa brute force password)
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimitMiddleware(2, 5))
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		// Tarif material bisa diakses publik biar orang liat harga poin dulu
		api.GET("/materials", h.GetMaterials)

		// 2. PROTECTED ROUTES (Harus Login / Punya Token)
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", h.GetUserProfile)
			protected.PUT("/profile/fcm-token", h.UpdateFCMToken)

			// MODULE REQUEST (sisi requester)
			protected.POST("/requests", h.CreateRequest)
			protected.GET("/requests", h.GetMyRequests)
			protected.GET("/requests/:id", h.GetRequestDetail)
			protected.POST("/requests/:id/cancel", h.CancelRequest)

			// Group Khusus Kolektor
			collector := protected.Group("/collector")
			{
				// 1. Cari Job di sekitar
				collector.GET("/requests/nearby", h.FindNearbyRequests)
				collector.GET("/requests/my-jobs", h.GetMyJobs)

				// 2. Ambil & kerjakan Job
				collector.POST("/requests/:id/claim", h.ClaimRequest)
				collector.POST("/requests/:id/start", h.StartPickup)
				collector.POST("/requests/:id/complete", h.CompletePickup)
			}

			// MODULE WALLET
			wallet := protected.Group("/wallet")
			{
				wallet.GET("", h.GetMyWallet)
				wallet.POST("/withdraw", h.Withdraw)
				wallet.GET("/transactions", h.GetTransactions)
			}

			// MODULE PRESENCE (live map)
			presence := protected.Group("/presence")
			{
				presence.POST("/location", h.PublishLocation)
				presence.DELETE("/location", h.DisconnectPresence)
				presence.GET("/stream", h.StreamPresence)
			}

			// Group Khusus Admin
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/dashboard", h.GetDashboardStats)
				admin.PUT("/materials/:id", h.UpdateMaterial)
			}
		}
	}
}
