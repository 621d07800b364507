// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tix/internal/availability"
	"tix/internal/booking"
	"tix/internal/notifications"
	"tix/internal/shared/config"
	"tix/internal/shared/database"
	"tix/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	locks    *booking.LockManager
	producer notifications.Producer
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, locks *booking.LockManager, producer notifications.Producer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		locks:    locks,
		producer: producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAvailabilityRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tix-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tix-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAvailabilityRoutes configures event browsing and the ticket stream
func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup) {
	var cacheService cache.Service
	if r.db.Redis != nil {
		cacheService = cache.NewService(r.db.Redis)
	}

	availabilityRepo := availability.NewRepository(r.db.GetPostgreSQL())
	availabilityService := availability.NewService(availabilityRepo, r.locks, cacheService, r.config.Redis.CacheTTL)
	availabilityController := availability.NewController(availabilityService, r.config.Stream.PushInterval)

	availability.SetupAvailabilityRoutes(rg, availabilityController)
}

// setupBookingRoutes configures reserve and purchase routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := booking.NewRepository(r.db.GetPostgreSQL())
	bookingService := booking.NewService(bookingRepo, r.locks, booking.NewMockCharger(), r.producer)
	bookingController := booking.NewController(bookingService)

	booking.SetupBookingRoutes(rg, bookingController)
}
