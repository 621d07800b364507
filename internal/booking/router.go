package booking

import (
	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	bookingRoutes := router.Group("/booking")
	{
		bookingRoutes.POST("/reserve", controller.Reserve)                 // POST /api/v1/booking/reserve - Hold tickets
		bookingRoutes.POST("/purchase", controller.Purchase)               // POST /api/v1/booking/purchase - Complete purchase
		bookingRoutes.GET("/purchases/:purchaseId", controller.GetPurchase) // GET /api/v1/booking/purchases/:purchaseId - Purchase details
	}
}
