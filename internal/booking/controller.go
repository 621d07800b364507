package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tix/internal/shared/utils/response"
)

type Controller interface {
	Reserve(c *gin.Context)
	Purchase(c *gin.Context)
	GetPurchase(c *gin.Context)
}

type controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) Controller {
	return &controller{
		service:   service,
		validator: validator.New(),
	}
}

// Reserve handles POST /booking/reserve. Unlike the rest of the API it does
// not use the standard envelope: the response body keeps the reserve shape
// on every status so browser clients can read the user-facing message.
func (ctrl *controller) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ReserveResponse{
			Success:   false,
			Message:   "invalid request body: expected {\"ticket_ids\": [...]}",
			TicketIDs: []string{},
		})
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ReserveResponse{
			Success:   false,
			Message:   "ticket_ids must be a non-empty list",
			TicketIDs: []string{},
		})
		return
	}

	resp, status := ctrl.service.Reserve(c.Request.Context(), req)
	c.JSON(status, resp)
}

// Purchase handles POST /booking/purchase with the same body contract as
// Reserve.
func (ctrl *controller) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PurchaseResponse{
			Success:   false,
			Message:   "invalid request body: expected {\"ticket_ids\": [...]}",
			TicketIDs: []string{},
		})
		return
	}
	if err := ctrl.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, PurchaseResponse{
			Success:   false,
			Message:   "ticket_ids must be a non-empty list",
			TicketIDs: []string{},
		})
		return
	}

	resp, status := ctrl.service.Purchase(c.Request.Context(), req)
	c.JSON(status, resp)
}

// GetPurchase handles GET /booking/purchases/:purchaseId.
func (ctrl *controller) GetPurchase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("purchaseId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid purchase ID", nil, err.Error())
		return
	}

	purchase, items, err := ctrl.service.GetPurchase(c.Request.Context(), id)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusNotFound, "Purchase not found", nil, nil)
		return
	}

	ticketIDs := make([]string, len(items))
	for i, item := range items {
		ticketIDs[i] = item.TicketID.String()
	}
	response.RespondJSON(c, "success", http.StatusOK, "Purchase retrieved successfully", gin.H{
		"purchase_id": purchase.ID.String(),
		"total_cents": purchase.TotalCents,
		"created_at":  purchase.CreatedAt,
		"ticket_ids":  ticketIDs,
	}, nil)
}
