package routes

import (
	"net/http"
	"time"

	"appointly/handlers"
	"appointly/middleware"
	"appointly/models"
	"appointly/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes registers account endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	{
		api.POST("/register", hb.Users.RegisterHandler)
		api.POST("/verify-otp", hb.Users.VerifyOTPHandler)
		api.POST("/resend-otp", hb.Users.ResendOTPHandler)
		api.POST("/login", hb.Users.LoginHandler)

		// Protected routes (Require Authentication)
		api.GET("/me", middleware.JWTAuthMiddleware(), hb.Users.MeHandler)
	}
}

// RegisterProviderRoutes registers provider discovery and management endpoints.
// The /me routes resolve the provider from the caller's user ID, so they
// only need authentication.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers")
	{
		api.GET("", hb.Providers.SearchHandler)
		api.GET("/:id", hb.Providers.GetByIDHandler)
		api.GET("/:id/slots", hb.Providers.SlotsHandler)
		api.GET("/:id/availability", hb.Providers.AvailabilityHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.POST("", hb.Providers.RegisterHandler)
		protected.GET("/me/profile", hb.Providers.GetMineHandler)
		protected.PATCH("/me", hb.Providers.UpdateMeHandler)
		protected.PUT("/me/working-hours", hb.Providers.SetWorkingHoursHandler)
		protected.POST("/me/blocked-dates", hb.Providers.AddBlockedDateHandler)
		protected.DELETE("/me/blocked-dates/:date", hb.Providers.RemoveBlockedDateHandler)
		protected.PUT("/me/services", hb.Providers.UpsertServicesHandler)
		protected.POST("/me/image", hb.Providers.UploadImageHandler)
	}
}

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(middleware.JWTAuthMiddleware())
		bookingGroup.POST("", hb.Bookings.CreateHandler)
		bookingGroup.GET("", hb.Bookings.ListHandler)
		bookingGroup.GET("/:id", hb.Bookings.GetHandler)
		bookingGroup.GET("/:id/refund-quote", hb.Bookings.RefundQuoteHandler)
		bookingGroup.POST("/:id/payment-intent", hb.Bookings.PaymentIntentHandler)
		bookingGroup.POST("/:id/payment-sync", hb.Bookings.PaymentSyncHandler)
		bookingGroup.POST("/:id/cancel", hb.Bookings.CancelHandler)
		bookingGroup.POST("/:id/reschedule", hb.Bookings.RescheduleHandler)
		bookingGroup.POST("/:id/refund", hb.Bookings.RefundHandler)
		bookingGroup.PATCH("/:id/status", hb.Bookings.UpdateStatusHandler)
	}
}

// RegisterPaymentRoutes registers the processor webhook. It is authenticated
// by its signature header, not a token.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/webhook", hb.Payments.HandleWebhook)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/legal", hb.Admin.LegalHandler)

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
		adminGroup.GET("/stats", hb.Admin.StatsHandler)
		adminGroup.GET("/users", hb.Admin.UsersHandler)
		adminGroup.GET("/providers", hb.Admin.ProvidersHandler)
		adminGroup.GET("/bookings", hb.Admin.BookingsHandler)
		adminGroup.PATCH("/providers/:id/verify", hb.Admin.VerifyProviderHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// background health monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterUserRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
