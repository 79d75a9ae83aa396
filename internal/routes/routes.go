package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-booking-server/internal/auth"
	"clinic-booking-server/internal/handlers"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Bookings  *handlers.BookingHandler
	Dashboard *handlers.DashboardHandler
	Auth      *handlers.AuthHandler
	Gate      *auth.Gate
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Mode     string
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": deps.Mode})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		public.GET("/slots", deps.Bookings.GetSlots)
		public.POST("/bookings", deps.Bookings.CreateBooking)
		public.POST("/auth/login", deps.Auth.Login)
	}

	// Staff routes behind the access gate
	staff := router.Group("/api/v1")
	staff.Use(
		middleware.AccessGate(deps.Gate),
		middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin),
	)
	{
		authRoutes := staff.Group("/auth")
		{
			authRoutes.GET("/session", deps.Auth.Session)
			authRoutes.POST("/logout", deps.Auth.Logout)
		}

		appointmentRoutes := staff.Group("/appointments")
		{
			appointmentRoutes.GET("", deps.Dashboard.ListAppointments)
			appointmentRoutes.GET("/export.csv", deps.Dashboard.ExportCSV)
			appointmentRoutes.PATCH("/:id/status", deps.Dashboard.UpdateAppointmentStatus)
		}

		staff.GET("/dashboard/stats", deps.Dashboard.GetStats)
	}
}
