package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tix/internal/shared/utils/response"
	"tix/pkg/logger"
)

// DefaultPushInterval is how often the stream endpoint re-sends the full
// ticket snapshot to each subscriber.
const DefaultPushInterval = 2 * time.Second

type Controller interface {
	GetEvents(c *gin.Context)
	GetEvent(c *gin.Context)
	GetTickets(c *gin.Context)
	StreamTickets(c *gin.Context)
}

type controller struct {
	service      Service
	pushInterval time.Duration
	log          *logger.Logger
}

func NewController(service Service, pushInterval time.Duration) Controller {
	if pushInterval <= 0 {
		pushInterval = DefaultPushInterval
	}
	return &controller{
		service:      service,
		pushInterval: pushInterval,
		log:          logger.GetDefault(),
	}
}

// GetEvents handles GET /events
func (ctrl *controller) GetEvents(c *gin.Context) {
	events, err := ctrl.service.GetEvents(c.Request.Context())
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch events", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}

// GetEvent handles GET /events/:eventId
func (ctrl *controller) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	event, err := ctrl.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusNotFound, "Event not found", nil, nil)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

// GetTickets handles GET /events/:eventId/tickets. It returns the same
// snapshot the stream pushes, for clients that prefer one-shot polling.
func (ctrl *controller) GetTickets(c *gin.Context) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	snapshots, err := ctrl.service.GetSnapshots(c.Request.Context(), id)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch tickets", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Tickets retrieved successfully", snapshots, nil)
}

// StreamTickets handles GET /events/:eventId/tickets/stream. It serves a
// server-sent event stream: one data frame containing the full enriched
// ticket snapshot immediately on connect, then again every push interval
// until the client disconnects.
func (ctrl *controller) StreamTickets(c *gin.Context) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Streaming not supported", nil, nil)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request.Context()
	if err := ctrl.pushSnapshot(ctx, c, flusher, id); err != nil {
		return
	}

	ticker := time.NewTicker(ctrl.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ctrl.pushSnapshot(ctx, c, flusher, id); err != nil {
				return
			}
		}
	}
}

func (ctrl *controller) pushSnapshot(ctx context.Context, c *gin.Context, flusher http.Flusher, eventID uuid.UUID) error {
	snapshots, err := ctrl.service.GetSnapshots(ctx, eventID)
	if err != nil {
		// Skip the tick rather than tearing down the stream; the next tick
		// retries. Context errors still end the stream.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ctrl.log.WithError(err).Warn("Failed to build ticket snapshot for stream")
		return nil
	}

	payload, err := json.Marshal(snapshots)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
