package availability

import (
	"github.com/gin-gonic/gin"
)

func SetupAvailabilityRoutes(router *gin.RouterGroup, controller Controller) {
	eventRoutes := router.Group("/events")
	{
		eventRoutes.GET("", controller.GetEvents)                              // GET /api/v1/events - List events
		eventRoutes.GET("/:eventId", controller.GetEvent)                      // GET /api/v1/events/:eventId - Event details
		eventRoutes.GET("/:eventId/tickets", controller.GetTickets)            // GET /api/v1/events/:eventId/tickets - One-shot snapshot
		eventRoutes.GET("/:eventId/tickets/stream", controller.StreamTickets)  // GET /api/v1/events/:eventId/tickets/stream - SSE snapshot stream
	}
}
